package domain

import "time"

// Task is the persisted unit of work.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     string     `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Completed   Completion `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed == Complete
}

// Touch refreshes UpdatedAt and seeds CreatedAt on first use.
func (t *Task) Touch(now time.Time) {
	if t == nil {
		return
	}
	t.UpdatedAt = now
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}

// TaskInput carries the writable fields of a create or full update.
type TaskInput struct {
	Title       string
	Description string
	DueDate     string
	Priority    Priority
	Completed   *Completion
}

// NewTask builds a validated, not yet persisted task with defaults applied.
func NewTask(in TaskInput) (*Task, error) {
	task := &Task{Completed: Incomplete}
	if err := task.Replace(in); err != nil {
		return nil, err
	}
	return task, nil
}

// Replace overwrites title, description, due date and priority with the input.
// Completed is only replaced when the input carries it. The task is left
// untouched when validation fails.
func (t *Task) Replace(in TaskInput) error {
	next := *t
	next.Title = in.Title
	next.Description = in.Description
	next.Priority = in.Priority.OrDefault()
	if in.Completed != nil {
		next.Completed = *in.Completed
	}

	due, err := NormalizeDate(in.DueDate)
	if err != nil {
		return err
	}
	next.DueDate = due

	if err := next.Validate(); err != nil {
		return err
	}
	*t = next
	return nil
}

// TaskPatch is a partial update. Nil fields are left as they are.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *Priority
	Completed   *Completion
}

// Empty reports whether the patch carries no fields.
func (p TaskPatch) Empty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.DueDate == nil &&
		p.Priority == nil &&
		p.Completed == nil
}

// ApplyTo merges the present fields into t. The merged record is validated
// before t is modified.
func (p TaskPatch) ApplyTo(t *Task) error {
	if t == nil {
		return ErrInvalidPayload
	}
	next := *t
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.DueDate != nil {
		due, err := NormalizeDate(*p.DueDate)
		if err != nil {
			return err
		}
		next.DueDate = due
	}
	if p.Priority != nil {
		next.Priority = p.Priority.OrDefault()
	}
	if p.Completed != nil {
		next.Completed = *p.Completed
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*t = next
	return nil
}
