package link

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/course"
	"github.com/raphco/materia/core/user"
)

var ErrNotFound = errors.New("sidebar link not found")

type (
	Repository interface {
		LoadAllLinks(ctx context.Context) ([]SidebarLink, error)
		SaveLink(ctx context.Context, l SidebarLink) (SidebarLink, error) // upsert by id
		DeleteLink(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, lf SidebarLinkFields) (SidebarLink, error)
		Update(ctx context.Context, id string, lf SidebarLinkFields) (SidebarLink, error)
		Delete(ctx context.Context, id string) error
		QueryVisible(ctx context.Context, v user.Viewer) ([]SidebarLink, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, lf SidebarLinkFields) (SidebarLink, error) {
	return svc.repo.SaveLink(ctx, SidebarLink{
		ID:          uuid.New().String(),
		Text:        lf.Text,
		URL:         lf.URL,
		AudienceTag: lf.AudienceTag,
	})
}

func (svc *service) Update(ctx context.Context, id string, lf SidebarLinkFields) (SidebarLink, error) {
	links, err := svc.repo.LoadAllLinks(ctx)
	if err != nil {
		return SidebarLink{}, err
	}
	for _, l := range links {
		if l.ID == id {
			l.Text = lf.Text
			l.URL = lf.URL
			l.AudienceTag = lf.AudienceTag
			return svc.repo.SaveLink(ctx, l)
		}
	}
	return SidebarLink{}, ErrNotFound
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteLink(ctx, id)
}

func (svc *service) QueryVisible(ctx context.Context, v user.Viewer) ([]SidebarLink, error) {
	links, err := svc.repo.LoadAllLinks(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]SidebarLink, 0, len(links))
	for _, l := range links {
		if course.Visible(l.AudienceTag, v) {
			visible = append(visible, l)
		}
	}
	return visible, nil
}
