package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/event"
)

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewCalendarEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) LoadAllEvents(ctx context.Context) ([]event.CalendarEvent, error) {
	var docs [][]byte
	if err := repo.db.SelectContext(ctx, &docs, `SELECT doc FROM calendar_event ORDER BY doc ->> 'date'`); err != nil {
		return nil, errors.Wrap(err, "querying calendar events")
	}

	events := make([]event.CalendarEvent, 0, len(docs))
	for _, doc := range docs {
		var e event.CalendarEvent
		if err := json.Unmarshal(doc, &e); err != nil {
			return nil, errors.Wrap(err, "decoding calendar event")
		}
		events = append(events, e)
	}
	return events, nil
}

func (repo *eventRepository) SaveEvent(ctx context.Context, e event.CalendarEvent) (event.CalendarEvent, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return event.CalendarEvent{}, errors.Wrap(err, "encoding calendar event")
	}

	q := `
		INSERT INTO calendar_event (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`
	if _, err = repo.db.ExecContext(ctx, q, e.ID, doc); err != nil {
		return event.CalendarEvent{}, errors.Wrap(err, "saving calendar event")
	}
	return e, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM calendar_event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting calendar event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}
	return nil
}
