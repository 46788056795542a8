// Package validation registers the custom binding rules used by request structs.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/utils"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register adds the notblank, priority and duedate rules to gin's validator and makes
// validation errors report JSON field names. It is safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = RegisterOn(v)
	})
	return registerErr
}

// RegisterOn adds the custom rules to v.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return err
	}
	if err := v.RegisterValidation("priority", priority); err != nil {
		return err
	}
	return v.RegisterValidation("duedate", dueDate)
}

// priority accepts an empty string or one of the task priorities.
func priority(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.TaskPriority(value).IsValid()
}

// dueDate accepts an empty string, a calendar date or an RFC 3339 timestamp.
func dueDate(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return false
	}
	_, err := utils.ParseDueDate(field.String())
	return err == nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}
