package course

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/user"
)

var (
	// ErrNotFound is returned when an id fails to resolve at any level of the
	// content tree (Course, Module, Category or Material).
	ErrNotFound = errors.New("not found in course content")
)

type (
	// Repository persists whole Course aggregates. There is no independent
	// persistence of Modules/Categories/Materials: a nested mutation is a
	// full-Course overwrite, atomic from the caller's perspective.
	Repository interface {
		LoadAllCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		SaveCourse(ctx context.Context, c Course) (Course, error) // upsert by id
		DeleteCourse(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, owner user.User, cf CourseFields) (Course, error)
		Update(ctx context.Context, id string, cf CourseFields) (Course, error)
		SetProgress(ctx context.Context, id string, pct int) (Course, error)
		Delete(ctx context.Context, id string) error
		Get(ctx context.Context, id string) (Course, error)
		// GetForViewer prunes the tree for student viewers; teachers get it whole.
		GetForViewer(ctx context.Context, id string, v user.Viewer) (Course, error)
		// QueryVisible lists courses whose own tag passes for v; content is NOT pruned here.
		QueryVisible(ctx context.Context, v user.Viewer) ([]Course, error)
		QueryByOwner(ctx context.Context, ownerID string) ([]Course, error)

		AddModule(ctx context.Context, courseID string, mf ModuleFields) (Course, error)
		UpdateModule(ctx context.Context, courseID, moduleID string, mf ModuleFields) (Course, error)
		RemoveModule(ctx context.Context, courseID, moduleID string) (Course, error)

		AddCategory(ctx context.Context, courseID, moduleID string, cf CategoryFields) (Course, error)
		UpdateCategory(ctx context.Context, courseID, moduleID, categoryID string, cf CategoryFields) (Course, error)
		RemoveCategory(ctx context.Context, courseID, moduleID, categoryID string) (Course, error)

		AddMaterial(ctx context.Context, courseID, categoryID string, mf MaterialFields) (Course, error)
		UpdateMaterial(ctx context.Context, courseID, categoryID, materialID string, mf MaterialFields) (Course, error)
		RemoveMaterial(ctx context.Context, courseID, categoryID, materialID string) (Course, error)
	}

	service struct {
		repo Repository
		blob core.BlobStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, blob core.BlobStore) Service {
	return &service{repo: repo, blob: blob}
}

func (svc *service) Create(ctx context.Context, owner user.User, cf CourseFields) (Course, error) {
	now := time.Now().UTC()
	c := Course{
		ID:            uuid.New().String(),
		Title:         cf.Title,
		OwnerID:       owner.ID,
		OwnerName:     owner.Name,
		IconKey:       cf.IconKey,
		CoverImageRef: cf.CoverImageRef,
		Progress:      0,
		Content:       []Module{},
		AudienceTag:   cf.AudienceTag,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.SaveCourse(ctx, c)
}

func (svc *service) Update(ctx context.Context, id string, cf CourseFields) (Course, error) {
	return svc.mutate(ctx, id, func(c Course) (Course, error) {
		c.Title = cf.Title
		c.IconKey = cf.IconKey
		c.CoverImageRef = cf.CoverImageRef
		c.AudienceTag = cf.AudienceTag
		return c, nil
	})
}

func (svc *service) SetProgress(ctx context.Context, id string, pct int) (Course, error) {
	if pct < 0 || pct > 100 {
		return Course{}, core.NewValidationError(nil, core.FieldError{Field: "progress", Error: "progress must be between 0 and 100"})
	}
	return svc.mutate(ctx, id, func(c Course) (Course, error) {
		c.Progress = pct
		return c, nil
	})
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) GetForViewer(ctx context.Context, id string, v user.Viewer) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if v.IsStudent() && !Visible(c.AudienceTag, v) {
		return Course{}, ErrNotFound
	}
	return PruneForViewer(c, v), nil
}

func (svc *service) QueryVisible(ctx context.Context, v user.Viewer) ([]Course, error) {
	all, err := svc.repo.LoadAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]Course, 0, len(all))
	for _, c := range all {
		if Visible(c.AudienceTag, v) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (svc *service) QueryByOwner(ctx context.Context, ownerID string) ([]Course, error) {
	all, err := svc.repo.LoadAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]Course, 0, len(all))
	for _, c := range all {
		if c.OwnerID == ownerID {
			owned = append(owned, c)
		}
	}
	return owned, nil
}

// Modules

func (svc *service) AddModule(ctx context.Context, courseID string, mf ModuleFields) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		c.Content = appendNode(c.Content, Module{
			ID:              uuid.New().String(),
			Title:           mf.Title,
			IllustrationRef: mf.IllustrationRef,
			Categories:      []Category{},
			AudienceTag:     mf.AudienceTag,
		})
		return c, nil
	})
}

func (svc *service) UpdateModule(ctx context.Context, courseID, moduleID string, mf ModuleFields) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		content, found := replaceByID(c.Content, moduleID, func(m Module) Module {
			m.Title = mf.Title
			m.IllustrationRef = mf.IllustrationRef
			m.AudienceTag = mf.AudienceTag
			return m
		})
		if !found {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

func (svc *service) RemoveModule(ctx context.Context, courseID, moduleID string) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		content, found := removeByID(c.Content, moduleID)
		if !found {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

// Categories

func (svc *service) AddCategory(ctx context.Context, courseID, moduleID string, cf CategoryFields) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		content, found := replaceByID(c.Content, moduleID, func(m Module) Module {
			m.Categories = appendNode(m.Categories, Category{
				ID:              uuid.New().String(),
				Title:           cf.Title,
				IllustrationRef: cf.IllustrationRef,
				Materials:       []Material{},
				AudienceTag:     cf.AudienceTag,
			})
			return m
		})
		if !found {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

func (svc *service) UpdateCategory(ctx context.Context, courseID, moduleID, categoryID string, cf CategoryFields) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		var catFound bool
		content, modFound := replaceByID(c.Content, moduleID, func(m Module) Module {
			var cats []Category
			cats, catFound = replaceByID(m.Categories, categoryID, func(cat Category) Category {
				cat.Title = cf.Title
				cat.IllustrationRef = cf.IllustrationRef
				cat.AudienceTag = cf.AudienceTag
				return cat
			})
			m.Categories = cats
			return m
		})
		if !modFound || !catFound {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

func (svc *service) RemoveCategory(ctx context.Context, courseID, moduleID, categoryID string) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		var catFound bool
		content, modFound := replaceByID(c.Content, moduleID, func(m Module) Module {
			var cats []Category
			cats, catFound = removeByID(m.Categories, categoryID)
			m.Categories = cats
			return m
		})
		if !modFound || !catFound {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

// Materials.
// The owning module is not part of the address: category ids are unique
// within a course, so the category is searched across every module.

func (svc *service) AddMaterial(ctx context.Context, courseID, categoryID string, mf MaterialFields) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		// resolve the category before touching the blob store so a bad id
		// cannot leave an orphan blob behind
		var buildErr error
		content, found := replaceCategory(c.Content, categoryID, func(cat Category) Category {
			mat, err := svc.buildMaterial(ctx, mf, nil)
			if err != nil {
				buildErr = err
				return cat
			}
			mat.ID = uuid.New().String()
			cat.Materials = appendNode(cat.Materials, mat)
			return cat
		})
		if buildErr != nil {
			return Course{}, buildErr
		}
		if !found {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

func (svc *service) UpdateMaterial(ctx context.Context, courseID, categoryID, materialID string, mf MaterialFields) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		var (
			matFound bool
			buildErr error
		)
		content, catFound := replaceCategory(c.Content, categoryID, func(cat Category) Category {
			var mats []Material
			mats, matFound = replaceByID(cat.Materials, materialID, func(orig Material) Material {
				mat, err := svc.buildMaterial(ctx, mf, &orig)
				if err != nil {
					buildErr = err
					return orig
				}
				mat.ID = orig.ID
				return mat
			})
			cat.Materials = mats
			return cat
		})
		if buildErr != nil {
			return Course{}, buildErr
		}
		if !catFound || !matFound {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

func (svc *service) RemoveMaterial(ctx context.Context, courseID, categoryID, materialID string) (Course, error) {
	return svc.mutate(ctx, courseID, func(c Course) (Course, error) {
		var matFound bool
		content, catFound := replaceCategory(c.Content, categoryID, func(cat Category) Category {
			var mats []Material
			mats, matFound = removeByID(cat.Materials, materialID)
			cat.Materials = mats
			return cat
		})
		if !catFound || !matFound {
			return Course{}, ErrNotFound
		}
		c.Content = content
		return c, nil
	})
}

// mutate runs the load → transform → save cycle every nested mutation goes
// through. The transform gets its own copy; nothing is persisted when it fails.
func (svc *service) mutate(ctx context.Context, courseID string, fn func(Course) (Course, error)) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	updated, err := fn(c)
	if err != nil {
		return Course{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveCourse(ctx, updated)
}

// replaceCategory maps the category with the given id through fn, searching
// all modules of the course.
func replaceCategory(content []Module, categoryID string, fn func(Category) Category) ([]Module, bool) {
	out := make([]Module, len(content))
	var found bool
	for i, mod := range content {
		if !found {
			if cats, ok := replaceByID(mod.Categories, categoryID, fn); ok {
				mod.Categories = cats
				found = true
			}
		}
		out[i] = mod
	}
	return out, found
}

// buildMaterial resolves the durable locator of a material. File content is
// handed to the blob store and only its URL is kept; without a blob store
// (local fallback mode) the bytes are inlined as a data URL. An update with no
// new upload keeps the original blob reference.
func (svc *service) buildMaterial(ctx context.Context, mf MaterialFields, orig *Material) (Material, error) {
	mat := Material{
		Title:       mf.Title,
		Kind:        mf.Kind,
		Locator:     mf.Locator,
		AudienceTag: mf.AudienceTag,
	}

	if mf.Kind == KindFile {
		switch {
		case len(mf.Data) > 0:
			mat.MediaType = mf.MediaType
			mat.FileName = mf.FileName
			if svc.blob != nil {
				url, err := svc.blob.Upload(ctx, mf.Data, mf.MediaType, mf.FileName)
				if err != nil {
					return Material{}, errors.Wrap(err, "uploading material file")
				}
				mat.Locator = url
			} else {
				mat.Locator = fmt.Sprintf("data:%s;base64,%s", mf.MediaType, base64.StdEncoding.EncodeToString(mf.Data))
			}
		case orig != nil:
			mat.Locator = orig.Locator
			mat.MediaType = orig.MediaType
			mat.FileName = orig.FileName
		}
	}
	return mat, nil
}
