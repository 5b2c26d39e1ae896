package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/course"
)

// DateLayout is the wire format of CalendarEvent.Date.
const DateLayout = "2006-01-02"

// Colors the calendar knows how to render.
var AllColors = []string{"blue", "green", "purple", "red", "yellow", "pink"}

// CalendarEvent is a dated entry on the shared calendar, optionally tied to a
// course by title. Visibility follows the same audience rules as content.
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
	Color       string `json:"color"`
	course.AudienceTag
}

type CalendarEventFields struct {
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description"`
	CourseTitle string `json:"course_title"`
	Color       string `json:"color" validate:"omitempty,oneof=blue green purple red yellow pink"`
	course.AudienceTag
}

func (ef *CalendarEventFields) Validate(validate *validator.Validate) error {
	ef.Title = core.CleanString(ef.Title)
	if err := validate.Struct(ef); err != nil {
		return err
	}
	if _, err := time.Parse(DateLayout, ef.Date); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	if ef.Color == "" {
		ef.Color = AllColors[0]
	}
	return nil
}
