package logger

// LoggerInterface is what the protocol and watcher layers log through, so
// tests can pass the real channel logger or a fake.
type LoggerInterface interface {
	Print(s string)
	Printf(s string, as ...interface{})
	PrintError(source string, err error)
}
