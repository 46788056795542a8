package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-board-api/internal/dto"
	"github.com/yukikurage/team-board-api/internal/services"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	env *testEnv
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = setupTestEnv(suite.T())

	for _, title := range []string{"To Do", "Done"} {
		w := suite.env.request(suite.T(), http.MethodPost, "/api/columns", map[string]string{"title": title}, "")
		suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}
}

type taskResponse struct {
	Message string      `json:"message"`
	Task    dto.TaskDTO `json:"task"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Helper function to create a task through the API
func (suite *TaskHandlerTestSuite) createTask(columnID, title string, extra map[string]interface{}) dto.TaskDTO {
	body := map[string]interface{}{"columnId": columnID, "title": title}
	for k, v := range extra {
		body[k] = v
	}

	w := suite.env.request(suite.T(), http.MethodPost, "/api/tasks", body, "")
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp taskResponse
	decode(suite.T(), w, &resp)
	suite.Equal("Task added successfully!", resp.Message)
	return resp.Task
}

func (suite *TaskHandlerTestSuite) board() dto.BoardDTO {
	w := suite.env.request(suite.T(), http.MethodGet, "/api/board", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var board dto.BoardDTO
	decode(suite.T(), w, &board)
	return board
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	aliceID, _ := suite.env.registerAndLogin(suite.T(), "alice")

	suite.createTask("to-do", "first", nil)
	task := suite.createTask("to-do", "second", map[string]interface{}{
		"description":  "details",
		"due":          "2030-02-03",
		"tags":         []string{"api"},
		"priority":     "High",
		"assignee_ids": []uint64{aliceID},
	})

	suite.Equal("to-do", task.Status)
	suite.Equal(1, task.Position)
	suite.Equal("2030-02-03", *task.Due)
	suite.Equal([]string{"api"}, task.Tags)
	suite.Equal("High", task.Priority)
	suite.Equal([]string{"alice"}, task.Assignees)
	suite.Equal([]uint64{aliceID}, task.AssigneeIDs)
}

// "TBD" is the clients' placeholder for an open date; it is stored as no due
// date and reads back as null rather than the placeholder text.
func (suite *TaskHandlerTestSuite) TestCreateTask_TBDDueReadsBackAsNull() {
	task := suite.createTask("to-do", "undated", map[string]interface{}{"due": "TBD"})
	suite.Nil(task.Due)
	suite.Equal("Low", task.Priority)

	w := suite.env.request(suite.T(), http.MethodGet, "/api/tasks/"+task.ID, nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	var raw map[string]interface{}
	decode(suite.T(), w, &raw)
	suite.Contains(raw, "due")
	suite.Nil(raw["due"])
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Validation() {
	cases := []struct {
		name    string
		body    map[string]interface{}
		status  int
		message string
	}{
		{"missing column", map[string]interface{}{"title": "x"}, http.StatusBadRequest, msgTaskFieldsRequired},
		{"blank title", map[string]interface{}{"columnId": "to-do", "title": "  "}, http.StatusBadRequest, msgTaskFieldsRequired},
		{"bad priority", map[string]interface{}{"columnId": "to-do", "title": "x", "priority": "Urgent"}, http.StatusBadRequest, msgInvalidTaskData},
		{"bad due", map[string]interface{}{"columnId": "to-do", "title": "x", "due": "soon"}, http.StatusBadRequest, msgInvalidTaskData},
		{"unknown assignee", map[string]interface{}{"columnId": "to-do", "title": "x", "assignee_ids": []int{99}}, http.StatusBadRequest, "One or more assignees do not exist."},
		{"unknown column", map[string]interface{}{"columnId": "archive", "title": "x"}, http.StatusNotFound, "Column not found."},
	}

	for _, tc := range cases {
		w := suite.env.request(suite.T(), http.MethodPost, "/api/tasks", tc.body, "")
		suite.Equal(tc.status, w.Code, tc.name)

		var resp errorResponse
		decode(suite.T(), w, &resp)
		suite.Equal(tc.message, resp.Message, tc.name)
	}
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	task := suite.createTask("to-do", "lookup", nil)

	w := suite.env.request(suite.T(), http.MethodGet, "/api/tasks/"+task.ID, nil, "")
	suite.Equal(http.StatusOK, w.Code)
	var got dto.TaskDTO
	decode(suite.T(), w, &got)
	suite.Equal("lookup", got.Title)

	w = suite.env.request(suite.T(), http.MethodGet, "/api/tasks/missing", nil, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask() {
	aliceID, _ := suite.env.registerAndLogin(suite.T(), "alice")
	task := suite.createTask("to-do", "draft", map[string]interface{}{
		"priority":     "High",
		"tags":         []string{"a"},
		"assignee_ids": []uint64{aliceID},
	})

	w := suite.env.request(suite.T(), http.MethodPut, "/api/tasks/"+task.ID, map[string]interface{}{"title": "final"}, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp taskResponse
	decode(suite.T(), w, &resp)
	suite.Equal("Task updated successfully!", resp.Message)
	suite.Equal("final", resp.Task.Title)
	suite.Equal("Low", resp.Task.Priority)
	suite.Empty(resp.Task.Tags)
	suite.Equal([]uint64{aliceID}, resp.Task.AssigneeIDs)

	w = suite.env.request(suite.T(), http.MethodPut, "/api/tasks/"+task.ID, map[string]interface{}{"title": "final", "assignee_ids": []uint64{}}, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	decode(suite.T(), w, &resp)
	suite.Empty(resp.Task.AssigneeIDs)

	w = suite.env.request(suite.T(), http.MethodPut, "/api/tasks/"+task.ID, map[string]interface{}{"description": "no title"}, "")
	suite.Equal(http.StatusBadRequest, w.Code)
	var errResp errorResponse
	decode(suite.T(), w, &errResp)
	suite.Equal(msgTaskTitleRequired, errResp.Message)

	w = suite.env.request(suite.T(), http.MethodPut, "/api/tasks/missing", map[string]interface{}{"title": "x"}, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestMoveTask() {
	a := suite.createTask("to-do", "a", nil)
	b := suite.createTask("to-do", "b", nil)
	suite.createTask("done", "c", nil)

	w := suite.env.request(suite.T(), http.MethodPut, "/api/tasks/"+a.ID+"/move", map[string]interface{}{
		"sourceColumnId": "to-do",
		"destColumnId":   "done",
		"newIndex":       0,
	}, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	board := suite.board()
	suite.Require().Len(board.Columns["to-do"], 1)
	suite.Equal(b.ID, board.Columns["to-do"][0].ID)
	suite.Equal(0, board.Columns["to-do"][0].Position)
	suite.Require().Len(board.Columns["done"], 2)
	suite.Equal(a.ID, board.Columns["done"][0].ID)
	suite.Equal("c", board.Columns["done"][1].Title)
	suite.Equal(1, board.Columns["done"][1].Position)
}

func (suite *TaskHandlerTestSuite) TestMoveTask_Errors() {
	task := suite.createTask("to-do", "a", nil)
	path := "/api/tasks/" + task.ID + "/move"

	w := suite.env.request(suite.T(), http.MethodPut, path, map[string]interface{}{"sourceColumnId": "to-do", "destColumnId": "done"}, "")
	suite.Equal(http.StatusBadRequest, w.Code)
	var resp errorResponse
	decode(suite.T(), w, &resp)
	suite.Equal(msgMoveFieldsRequired, resp.Message)

	w = suite.env.request(suite.T(), http.MethodPut, path, map[string]interface{}{"sourceColumnId": "to-do", "destColumnId": "done", "newIndex": -1}, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.request(suite.T(), http.MethodPut, path, map[string]interface{}{"sourceColumnId": "done", "destColumnId": "to-do", "newIndex": 0}, "")
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.env.request(suite.T(), http.MethodPut, path, map[string]interface{}{"sourceColumnId": "to-do", "destColumnId": "archive", "newIndex": 0}, "")
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.request(suite.T(), http.MethodPut, "/api/tasks/missing/move", map[string]interface{}{"sourceColumnId": "to-do", "destColumnId": "done", "newIndex": 0}, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	suite.createTask("to-do", "a", nil)
	b := suite.createTask("to-do", "b", nil)
	suite.createTask("to-do", "c", nil)

	w := suite.env.request(suite.T(), http.MethodDelete, "/api/tasks/"+b.ID, nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.env.request(suite.T(), http.MethodDelete, "/api/tasks/"+b.ID, nil, "")
	suite.Equal(http.StatusNotFound, w.Code)

	tasks := suite.board().Columns["to-do"]
	suite.Require().Len(tasks, 2)
	suite.Equal("c", tasks[1].Title)
	suite.Equal(1, tasks[1].Position)
}

func (suite *TaskHandlerTestSuite) TestListAndTeamTasks() {
	aliceID, _ := suite.env.registerAndLogin(suite.T(), "alice")
	bobID, _ := suite.env.registerAndLogin(suite.T(), "bob")
	suite.createTask("to-do", "solo", map[string]interface{}{"assignee_ids": []uint64{aliceID}})
	suite.createTask("done", "pair", map[string]interface{}{"assignee_ids": []uint64{aliceID, bobID}})

	w := suite.env.request(suite.T(), http.MethodGet, "/api/tasks", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	var all []dto.TaskDTO
	decode(suite.T(), w, &all)
	suite.Len(all, 2)

	w = suite.env.request(suite.T(), http.MethodGet, "/api/team-tasks", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	var team []dto.TaskDTO
	decode(suite.T(), w, &team)
	suite.Require().Len(team, 1)
	suite.Equal("pair", team[0].Title)
	suite.Equal([]string{"alice", "bob"}, team[0].Assignees)
}

func (suite *TaskHandlerTestSuite) TestGenerateTasks() {
	suite.env.generator.tasks = []services.GeneratedTask{
		{Title: "Draft agenda", Priority: "Medium"},
	}

	w := suite.env.request(suite.T(), http.MethodPost, "/api/tasks/generate", map[string]string{"text": "we need an agenda"}, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Tasks []dto.GeneratedTaskDTO `json:"tasks"`
	}
	decode(suite.T(), w, &resp)
	suite.Require().Len(resp.Tasks, 1)
	suite.Equal("Draft agenda", resp.Tasks[0].Title)
	suite.Equal([]string{}, resp.Tasks[0].Tags)

	w = suite.env.request(suite.T(), http.MethodPost, "/api/tasks/generate", map[string]string{}, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.env.generator.tasks = nil
	w = suite.env.request(suite.T(), http.MethodPost, "/api/tasks/generate", map[string]string{"text": "nothing"}, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	// Tasks are drafts only
	suite.Empty(suite.board().Columns["to-do"])
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
