package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-board-api/internal/database"
	"github.com/yukikurage/team-board-api/internal/mail"
	"github.com/yukikurage/team-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Role: "member"}
	require.NoError(t, db.Create(user).Error)
	return user
}

type recordedEvent struct {
	entity, action, id string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *fakeNotifier) BoardChanged(entity, action, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{entity, action, id})
}

type fakeObserver struct {
	mu      sync.Mutex
	results map[string][]error
}

func (o *fakeObserver) ObserveBoardOperation(operation string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string][]error{}
	}
	o.results[operation] = append(o.results[operation], err)
}

type fakeGenerator struct {
	tasks []GeneratedTask
	err   error
}

func (g *fakeGenerator) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	return g.tasks, g.err
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeOAuth struct {
	profile *GoogleProfile
	err     error
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	return f.profile, f.err
}
