package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/raphco/materia/core"
)

// Material kinds
const (
	KindFile = "file"
	KindLink = "link"
)

// AudienceTag restricts a content node to classrooms and/or school years.
// An empty set on either axis means that axis is unrestricted, NOT hidden:
// a brand-new node with a zero tag is visible to everyone.
type AudienceTag struct {
	Classrooms []string `json:"classrooms" validate:"omitempty,dive,oneof=A B C D E"`
	Years      []int    `json:"years" validate:"omitempty,dive,min=1,max=9"`
}

// Material is a leaf of the content tree: a link to an external resource or
// a reference to a stored file blob.
type Material struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	// Locator is the durable URL of the content: the external URL for link
	// materials, the blob store URL for file materials.
	Locator   string `json:"locator"`
	MediaType string `json:"media_type,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	AudienceTag
}

type Category struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	IllustrationRef string     `json:"illustration_ref,omitempty"`
	Materials       []Material `json:"materials"`
	AudienceTag
}

type Module struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	IllustrationRef string     `json:"illustration_ref,omitempty"`
	Categories      []Category `json:"categories"`
	AudienceTag
}

// Course is the aggregate root. Content is exclusively owned: no Module,
// Category or Material is shared across Courses or referenced from elsewhere.
type Course struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	// IconKey is an opaque key the presentation layer maps to a renderable.
	IconKey       string   `json:"icon_key,omitempty"`
	CoverImageRef string   `json:"cover_image_ref,omitempty"`
	Progress      int      `json:"progress"`
	Content       []Module `json:"content"`
	AudienceTag
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Input payloads. Updates replace every editable field of the target node,
// matching the save-whole-form flow of the UI.

type CourseFields struct {
	Title         string `json:"title" validate:"required"`
	IconKey       string `json:"icon_key"`
	CoverImageRef string `json:"cover_image_ref" validate:"omitempty,url"`
	AudienceTag
}

func (cf *CourseFields) Validate(validate *validator.Validate) error {
	cf.Title = core.CleanString(cf.Title)
	return validate.Struct(cf)
}

type ModuleFields struct {
	Title           string `json:"title" validate:"required"`
	IllustrationRef string `json:"illustration_ref" validate:"omitempty,url"`
	AudienceTag
}

func (mf *ModuleFields) Validate(validate *validator.Validate) error {
	mf.Title = core.CleanString(mf.Title)
	return validate.Struct(mf)
}

type CategoryFields struct {
	Title           string `json:"title" validate:"required"`
	IllustrationRef string `json:"illustration_ref" validate:"omitempty,url"`
	AudienceTag
}

func (cf *CategoryFields) Validate(validate *validator.Validate) error {
	cf.Title = core.CleanString(cf.Title)
	return validate.Struct(cf)
}

// MaterialFields carries either a link URL (Kind == link) or uploaded file
// content (Kind == file). On update, empty Data keeps the stored blob.
type MaterialFields struct {
	Title    string `json:"title" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=file link"`
	Locator  string `json:"locator" validate:"omitempty,url"`
	FileName string `json:"file_name"`

	// file uploads; never persisted as-is
	Data      []byte `json:"-"`
	MediaType string `json:"media_type"`

	AudienceTag
}

func (mf *MaterialFields) Validate(validate *validator.Validate) error {
	mf.Title = core.CleanString(mf.Title)
	if err := validate.Struct(mf); err != nil {
		return err
	}
	if mf.Kind == KindLink && mf.Locator == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "locator", Error: "a link material requires a URL"})
	}
	if mf.Kind == KindFile && len(mf.Data) == 0 && mf.Locator == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file material requires an uploaded file"})
	}
	return nil
}
