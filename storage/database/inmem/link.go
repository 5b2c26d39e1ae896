package inmemdb

import (
	"context"
	"sort"

	"github.com/raphco/materia/core/link"
)

type linkRepository struct {
	db *linkTable
}

var _ link.Repository = (*linkRepository)(nil)

func NewSidebarLinkRepository(db *DB) link.Repository {
	return &linkRepository{db: db.link}
}

func (repo *linkRepository) LoadAllLinks(ctx context.Context) ([]link.SidebarLink, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	links := make([]link.SidebarLink, 0, len(repo.db.table))
	for _, l := range repo.db.table {
		links = append(links, *l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Text < links[j].Text })
	return links, nil
}

func (repo *linkRepository) SaveLink(ctx context.Context, l link.SidebarLink) (link.SidebarLink, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[l.ID] = &l
	return l, nil
}

func (repo *linkRepository) DeleteLink(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return link.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
