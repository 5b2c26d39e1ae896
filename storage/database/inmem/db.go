// Package inmemdb is the fallback store used when no database is reachable
// (local mode) and by the test suites. Courses optionally count against a
// byte quota the way a browser-local store would, surfacing
// core.ErrStorageFull when full.
package inmemdb

import (
	"sync"

	"github.com/raphco/materia/core/course"
	"github.com/raphco/materia/core/event"
	"github.com/raphco/materia/core/link"
	"github.com/raphco/materia/core/user"
)

type (
	DB struct {
		user   *userTable
		course *courseTable
		link   *linkTable
		event  *eventTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course

		// maxBytes caps the summed encoded size of all courses; 0 means unlimited.
		maxBytes int
		sizes    map[string]int
	}

	linkTable struct {
		sync.RWMutex
		table map[string]*link.SidebarLink
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*event.CalendarEvent
	}
)

func Open() (*DB, error) {
	return OpenWithQuota(0)
}

// OpenWithQuota opens a DB whose course table rejects writes once the total
// encoded size of stored courses would exceed maxCourseBytes.
func OpenWithQuota(maxCourseBytes int) (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table:    make(map[string]*course.Course),
			maxBytes: maxCourseBytes,
			sizes:    make(map[string]int),
		},
		link:  &linkTable{table: make(map[string]*link.SidebarLink)},
		event: &eventTable{table: make(map[string]*event.CalendarEvent)},
	}
	return db, nil
}
