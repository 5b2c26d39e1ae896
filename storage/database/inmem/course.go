package inmemdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) LoadAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

// SaveCourse upserts the whole aggregate. With a quota set, the write is
// rejected before anything is stored when the new total would overflow;
// the previous version of the course stays intact.
func (repo *courseRepository) SaveCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.maxBytes > 0 {
		enc, err := json.Marshal(c)
		if err != nil {
			return course.Course{}, errors.Wrap(err, "encoding course")
		}
		total := len(enc)
		for id, size := range repo.db.sizes {
			if id != c.ID {
				total += size
			}
		}
		if total > repo.db.maxBytes {
			return course.Course{}, core.ErrStorageFull
		}
		repo.db.sizes[c.ID] = len(enc)
	}

	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	delete(repo.db.sizes, id)
	return nil
}
