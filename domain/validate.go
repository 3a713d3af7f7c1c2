package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// taskRules mirrors Task in the shape the validator checks. Field order
// decides which message wins when several rules fail.
type taskRules struct {
	Title     string `validate:"required"`
	Priority  string `validate:"oneof=P1 P2 P3"`
	DueDate   string `validate:"omitempty,datetime=2006-01-02"`
	Completed int    `validate:"oneof=0 1"`
}

var ruleErrors = map[string]*Error{
	"Title":     ErrTitleRequired,
	"Priority":  ErrInvalidPriority,
	"DueDate":   ErrInvalidDueDate,
	"Completed": ErrInvalidCompletion,
}

// Validate checks the invariants every stored task must satisfy.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	err := validate.Struct(taskRules{
		Title:     strings.TrimSpace(t.Title),
		Priority:  string(t.Priority),
		DueDate:   t.DueDate,
		Completed: int(t.Completed),
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if dErr, ok := ruleErrors[fieldErrs[0].StructField()]; ok {
			return dErr
		}
	}
	return WrapError(ErrCodeInvalid, "invalid task", err)
}
