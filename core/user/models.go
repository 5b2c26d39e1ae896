package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/raphco/materia/core"
)

// Roles
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Classrooms & school years known to the school.
var (
	AllRoles      = []string{RoleTeacher, RoleStudent}
	AllClassrooms = []string{"A", "B", "C", "D", "E"}

	MinSchoolYear = 1
	MaxSchoolYear = 9
)

// Viewer is the effective role+cohort used to decide content visibility.
// It may differ from the real identity while a teacher simulates a student cohort.
type Viewer struct {
	Role      string `json:"role"`
	Year      int    `json:"year"`
	Classroom string `json:"classroom"`
}

func (v Viewer) IsStudent() bool { return v.Role == RoleStudent }

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     *bool     `json:"is_active"`
	Year         int       `json:"year"`
	Classroom    string    `json:"classroom"`
	AvatarRef    string    `json:"avatar_ref,omitempty"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// Viewer derives the real (un-simulated) viewer for this user.
func (u *User) Viewer() Viewer {
	return Viewer{Role: u.Role, Year: u.Year, Classroom: u.Classroom}
}

// NewUser contains information needed to sign a new User up.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,role"`
	Year            int    `json:"year" validate:"omitempty,schoolyear"`
	Classroom       string `json:"classroom" validate:"omitempty,classroom"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Classroom = strings.ToUpper(core.CleanString(nu.Classroom))
	if nu.Role == "" {
		nu.Role = RoleStudent
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateUser defines what a teacher may change on an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Role            string `json:"role" validate:"omitempty,role"`
	Year            int    `json:"year" validate:"omitempty,schoolyear"`
	Classroom       string `json:"classroom" validate:"omitempty,classroom"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User, svc Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	uu.Classroom = strings.ToUpper(core.CleanString(uu.Classroom))

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr)
}

// ProfileUpdate is the self-service profile edit. A password change must present
// the current password; it is rejected when that does not match.
type ProfileUpdate struct {
	Name               string `json:"name"`
	AvatarRef          string `json:"avatar_ref"`
	CurrentPassword    string `json:"current_password" validate:"required_with=NewPassword"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required_with=NewPassword,eqfield=NewPassword"`
}

func (pu *ProfileUpdate) Validate(validate *validator.Validate) error {
	pu.Name = core.CleanString(pu.Name)
	return validate.Struct(pu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
