package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/raphco/materia/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	classroomTag  = "classroom"
	classroomText = "invalid classroom"

	schoolYearTag  = "schoolyear"
	schoolYearText = fmt.Sprintf("school year must be between %d and %d", MinSchoolYear, MaxSchoolYear)

	cohortRequiredTag  = "cohort_required"
	cohortRequiredText = "students must provide their school year and classroom"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// RegisterValidators registers this package's validation tags and struct rules.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(classroomTag, classroomValidation)
	core.RegisterCustomTranslation(validate, translator, classroomTag, classroomText)

	_ = validate.RegisterValidation(schoolYearTag, schoolYearValidation)
	core.RegisterCustomTranslation(validate, translator, schoolYearTag, schoolYearText)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	validate.RegisterStructValidation(userStructValidation, UpdateUser{})
	validate.RegisterStructValidation(profileStructValidation, ProfileUpdate{})
	core.RegisterCustomTranslation(validate, translator, cohortRequiredTag, cohortRequiredText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

func classroomValidation(fl validator.FieldLevel) bool {
	room := fl.Field().String()
	for _, c := range AllClassrooms {
		if strings.EqualFold(room, c) {
			return true
		}
	}
	return false
}

func schoolYearValidation(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return MinSchoolYear <= year && year <= MaxSchoolYear
}

// userStructValidation does struct level validation on NewUser and UpdateUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validateStudentCohort(usr.Role, usr.Year, usr.Classroom, sl)
		validatePassword(usr.Password, usr.Name, usr.Email, sl)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Name, usr.Email, sl)
		}
	}
}

func profileStructValidation(sl validator.StructLevel) {
	if pu, ok := sl.Current().Interface().(ProfileUpdate); ok && pu.NewPassword != "" {
		validatePassword(pu.NewPassword, pu.Name, "", sl)
	}
}

// validateStudentCohort checks that students always carry a year and a classroom.
func validateStudentCohort(role string, year int, classroom string, sl validator.StructLevel) {
	if role != RoleStudent {
		return
	}
	if year == 0 {
		sl.ReportError(year, "year", "Year", cohortRequiredTag, "")
	}
	if classroom == "" {
		sl.ReportError(classroom, "classroom", "Classroom", cohortRequiredTag, "")
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var (
		digitCount         int
		hasUpper, hasLower bool
		hasDig, hasSpecial bool
	)

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range []rune(pwd) {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		reportErr(pwdComplexityTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
