package link

import (
	"github.com/go-playground/validator/v10"

	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/course"
)

// SidebarLink is a quick-access link shown in the sidebar. Lifecycle is
// independent from courses; visibility follows the same audience rules.
type SidebarLink struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	URL  string `json:"url"`
	course.AudienceTag
}

type SidebarLinkFields struct {
	Text string `json:"text" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
	course.AudienceTag
}

func (lf *SidebarLinkFields) Validate(validate *validator.Validate) error {
	lf.Text = core.CleanString(lf.Text)
	lf.URL = core.CleanString(lf.URL)
	return validate.Struct(lf)
}
