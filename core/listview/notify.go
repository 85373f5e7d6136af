package listview

import "context"

// NoticeKind classifies a user-facing notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notifier surfaces outcomes to the user (toast, status line, log...).
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) { f(kind, message) }

type nopNotifier struct{}

func (nopNotifier) Notify(NoticeKind, string) {}

// FetchFunc loads the full collection for a list screen.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)
