package transport

import "github.com/fastygo/taskboard/domain"

// TaskRequest is the body of POST /tasks and PUT /tasks/{id}.
type TaskRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueDate     string             `json:"due_date"`
	Priority    domain.Priority    `json:"priority"`
	Completed   *domain.Completion `json:"completed,omitempty"`
}

func (r TaskRequest) Input() domain.TaskInput {
	return domain.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    r.Priority,
		Completed:   r.Completed,
	}
}

// TaskPatchRequest is the body of PATCH /tasks/{id}. Only present fields are applied.
type TaskPatchRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	DueDate     *string            `json:"due_date,omitempty"`
	Priority    *domain.Priority   `json:"priority,omitempty"`
	Completed   *domain.Completion `json:"completed,omitempty"`
}

func (r TaskPatchRequest) Patch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    r.Priority,
		Completed:   r.Completed,
	}
}
