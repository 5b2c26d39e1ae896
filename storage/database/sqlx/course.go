// Package sqlxrepos implements the repositories on PostgreSQL. Content trees
// are persisted whole: each aggregate is one JSONB document, so a nested
// mutation is a single-row upsert and needs no transaction spanning tables.
package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) LoadAllCourses(ctx context.Context) ([]course.Course, error) {
	var docs [][]byte
	if err := repo.db.SelectContext(ctx, &docs, `SELECT doc FROM course ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(docs))
	for _, doc := range docs {
		var c course.Course
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, errors.Wrap(err, "decoding course")
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var doc []byte
	if err := repo.db.GetContext(ctx, &doc, `SELECT doc FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}

	var c course.Course
	if err := json.Unmarshal(doc, &c); err != nil {
		return course.Course{}, errors.Wrap(err, "decoding course")
	}
	return c, nil
}

func (repo *courseRepository) SaveCourse(ctx context.Context, c course.Course) (course.Course, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "encoding course")
	}

	q := `
		INSERT INTO course (id, owner_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`
	if _, err = repo.db.ExecContext(ctx, q, c.ID, c.OwnerID, doc, c.CreatedAt, c.UpdatedAt); err != nil {
		return course.Course{}, errors.Wrap(err, "saving course")
	}
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}
