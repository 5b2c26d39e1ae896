package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/link"
)

type linkRepository struct {
	db *sqlx.DB
}

var _ link.Repository = (*linkRepository)(nil)

func NewSidebarLinkRepository(db *sqlx.DB) link.Repository {
	return &linkRepository{db: db}
}

func (repo *linkRepository) LoadAllLinks(ctx context.Context) ([]link.SidebarLink, error) {
	var docs [][]byte
	if err := repo.db.SelectContext(ctx, &docs, `SELECT doc FROM sidebar_link ORDER BY doc ->> 'text'`); err != nil {
		return nil, errors.Wrap(err, "querying sidebar links")
	}

	links := make([]link.SidebarLink, 0, len(docs))
	for _, doc := range docs {
		var l link.SidebarLink
		if err := json.Unmarshal(doc, &l); err != nil {
			return nil, errors.Wrap(err, "decoding sidebar link")
		}
		links = append(links, l)
	}
	return links, nil
}

func (repo *linkRepository) SaveLink(ctx context.Context, l link.SidebarLink) (link.SidebarLink, error) {
	doc, err := json.Marshal(l)
	if err != nil {
		return link.SidebarLink{}, errors.Wrap(err, "encoding sidebar link")
	}

	q := `
		INSERT INTO sidebar_link (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`
	if _, err = repo.db.ExecContext(ctx, q, l.ID, doc); err != nil {
		return link.SidebarLink{}, errors.Wrap(err, "saving sidebar link")
	}
	return l, nil
}

func (repo *linkRepository) DeleteLink(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM sidebar_link WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting sidebar link")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return link.ErrNotFound
	}
	return nil
}
