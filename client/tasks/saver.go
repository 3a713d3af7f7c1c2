package tasks

import (
	"context"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/client/taskform"
	"github.com/fastygo/taskboard/domain"
)

// FormSaver persists task form payloads through the API. With EditID set it
// replaces that task, otherwise it creates a new one.
type FormSaver struct {
	Client *Client
	EditID int64

	// Saved holds the canonical record returned by the last successful save.
	Saved *domain.Task
}

var _ taskform.Saver = (*FormSaver)(nil)

func (s *FormSaver) Save(ctx context.Context, p taskform.Payload) error {
	req := transport.TaskRequest{
		Title:       p.Title,
		Description: p.Description,
		DueDate:     p.DueDate,
		Priority:    p.Priority,
	}

	var (
		saved *domain.Task
		err   error
	)
	if s.EditID > 0 {
		saved, err = s.Client.Update(ctx, s.EditID, req)
	} else {
		saved, err = s.Client.Create(ctx, req)
	}
	if err != nil {
		return err
	}
	s.Saved = saved
	return nil
}
