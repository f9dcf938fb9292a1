package credstore

import "log/slog"

// Notifier tells the user about a problem that did not fail the operation,
// such as falling back to the in-memory store.
type Notifier interface {
	Notify(title, message string)
}

type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// LogNotifier writes notifications as warnings.
func LogNotifier(logger *slog.Logger) Notifier {
	return NotifierFunc(func(title, message string) {
		logger.Warn(message, "title", title)
	})
}
