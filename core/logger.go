package core

// Logger is implemented by the services/logger backends.
// Error and Fatal accept extra args; an args entry of type user.User
// identifies the logged-in user to backends that track one.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
