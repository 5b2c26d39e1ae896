package user

import "github.com/raphco/materia/core"

const passwordResetTemplate = "password-reset"

func init() {
	core.RegisterEmailTemplate(passwordResetTemplate, `Hello {{ .Data.User.Name }},

You (or someone pretending to be you) requested a password reset for your account.
Follow this link to choose a new password:

{{ .FrontendBaseURL }}/password-reset-confirm?uid={{ .Data.UID }}&token={{ .Data.Token }}

If you did not request this, you can safely ignore this email.
`)
}
