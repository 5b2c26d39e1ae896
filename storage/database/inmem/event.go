package inmemdb

import (
	"context"
	"sort"

	"github.com/raphco/materia/core/event"
)

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil)

func NewCalendarEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) LoadAllEvents(ctx context.Context) ([]event.CalendarEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.CalendarEvent, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	return events, nil
}

func (repo *eventRepository) SaveEvent(ctx context.Context, e event.CalendarEvent) (event.CalendarEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return event.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
