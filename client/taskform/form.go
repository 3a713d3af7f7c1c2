// Package taskform holds the editable state behind the create/edit task form.
//
// A Form mirrors either an existing task (edit mode) or blank defaults
// (create mode). Submit validates locally and hands the payload to a Saver;
// the form never knows how the payload is persisted.
package taskform

import (
	"context"
	"strings"

	"github.com/fastygo/taskboard/domain"
)

// Payload is what the form hands to its Saver.
type Payload struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     string          `json:"due_date"`
	Priority    domain.Priority `json:"priority"`
}

// Saver persists a submitted payload.
type Saver interface {
	Save(ctx context.Context, p Payload) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, p Payload) error

func (f SaverFunc) Save(ctx context.Context, p Payload) error { return f(ctx, p) }

// Form is not safe for concurrent use.
type Form struct {
	Title       string
	Description string
	DueDate     string
	Priority    domain.Priority
	// Error is the message shown under the form, empty when there is none.
	Error string

	saver   Saver
	initial *domain.Task
}

// New returns a form in create mode when initial is nil, edit mode otherwise.
func New(saver Saver, initial *domain.Task) *Form {
	f := &Form{saver: saver}
	f.load(initial)
	return f
}

// SetInitial switches the task being edited. Fields are reloaded only when
// the reference changes; passing nil returns to create mode.
func (f *Form) SetInitial(task *domain.Task) {
	if task == f.initial {
		return
	}
	f.load(task)
}

// Initial returns the task being edited, nil in create mode.
func (f *Form) Initial() *domain.Task {
	return f.initial
}

func (f *Form) Editing() bool {
	return f.initial != nil
}

func (f *Form) Heading() string {
	if f.Editing() {
		return "Edit Task"
	}
	return "Add Task"
}

func (f *Form) SubmitLabel() string {
	if f.Editing() {
		return "Save Changes"
	}
	return "Add Task"
}

// SetPriority selects p. An empty selection keeps the current priority.
func (f *Form) SetPriority(p domain.Priority) {
	if p == "" {
		return
	}
	f.Priority = p
}

// Payload assembles the current field values.
func (f *Form) Payload() Payload {
	return Payload{
		Title:       f.Title,
		Description: f.Description,
		DueDate:     f.DueDate,
		Priority:    f.Priority,
	}
}

// Submit validates the title and delegates to the Saver. A blank title sets
// Error and returns domain.ErrTitleRequired without calling the Saver. After
// a successful save the fields reset to blank defaults in either mode; a
// failed save leaves them untouched.
func (f *Form) Submit(ctx context.Context) error {
	if strings.TrimSpace(f.Title) == "" {
		f.Error = domain.ErrTitleRequired.Message
		return domain.ErrTitleRequired
	}

	if err := f.saver.Save(ctx, f.Payload()); err != nil {
		return err
	}

	f.reset()
	f.Error = ""
	return nil
}

func (f *Form) load(task *domain.Task) {
	f.initial = task
	if task == nil {
		f.reset()
		return
	}
	f.Title = task.Title
	f.Description = task.Description
	f.DueDate = normalizeOrRaw(task.DueDate)
	f.Priority = task.Priority.OrDefault()
}

func (f *Form) reset() {
	f.Title = ""
	f.Description = ""
	f.DueDate = ""
	f.Priority = domain.DefaultPriority
}

func normalizeOrRaw(value string) string {
	normalized, err := domain.NormalizeDate(value)
	if err != nil {
		return value
	}
	return normalized
}
