package notifier

import (
	"context"
	"errors"
)

type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

var ErrUnsupported = errors.New("notifier: notifications are not supported on this platform")

type Notification struct {
	Title  string
	Body   string
	Icon   string
	Badge  string
	TaskID int
}

// Platform is the native notification capability. Implementations that can
// report clicks also implement ClickReporter.
type Platform interface {
	Permission() Permission
	// RequestPermission must only be called from an explicit user action.
	RequestPermission(ctx context.Context) (Permission, error)
	Show(n Notification) error
	// Focus brings the application to the foreground.
	Focus() error
}

// ClickReporter is implemented by platforms that report clicks on delivered
// notifications. NewScheduler routes them to Scheduler.HandleClick.
type ClickReporter interface {
	SetClickHandler(fn func(taskID int))
}
