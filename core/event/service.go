package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/course"
	"github.com/raphco/materia/core/user"
)

var ErrNotFound = errors.New("calendar event not found")

type (
	Repository interface {
		LoadAllEvents(ctx context.Context) ([]CalendarEvent, error)
		SaveEvent(ctx context.Context, e CalendarEvent) (CalendarEvent, error) // upsert by id
		DeleteEvent(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, ef CalendarEventFields) (CalendarEvent, error)
		Update(ctx context.Context, id string, ef CalendarEventFields) (CalendarEvent, error)
		Delete(ctx context.Context, id string) error
		QueryVisible(ctx context.Context, v user.Viewer) ([]CalendarEvent, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ef CalendarEventFields) (CalendarEvent, error) {
	return svc.repo.SaveEvent(ctx, CalendarEvent{
		ID:          uuid.New().String(),
		Title:       ef.Title,
		Date:        ef.Date,
		Description: ef.Description,
		CourseTitle: ef.CourseTitle,
		Color:       ef.Color,
		AudienceTag: ef.AudienceTag,
	})
}

func (svc *service) Update(ctx context.Context, id string, ef CalendarEventFields) (CalendarEvent, error) {
	events, err := svc.repo.LoadAllEvents(ctx)
	if err != nil {
		return CalendarEvent{}, err
	}
	for _, e := range events {
		if e.ID == id {
			e.Title = ef.Title
			e.Date = ef.Date
			e.Description = ef.Description
			e.CourseTitle = ef.CourseTitle
			e.Color = ef.Color
			e.AudienceTag = ef.AudienceTag
			return svc.repo.SaveEvent(ctx, e)
		}
	}
	return CalendarEvent{}, ErrNotFound
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}

func (svc *service) QueryVisible(ctx context.Context, v user.Viewer) ([]CalendarEvent, error) {
	events, err := svc.repo.LoadAllEvents(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if course.Visible(e.AudienceTag, v) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}
