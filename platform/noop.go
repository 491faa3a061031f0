package platform

import (
	"context"

	"todo-app/notifier"
)

// Noop is used when native notifications are disabled. The in-app badge
// keeps working.
type Noop struct{}

func (Noop) Permission() notifier.Permission { return notifier.PermissionUnsupported }

func (Noop) RequestPermission(context.Context) (notifier.Permission, error) {
	return notifier.PermissionUnsupported, nil
}

func (Noop) Show(notifier.Notification) error { return notifier.ErrUnsupported }

func (Noop) Focus() error { return nil }
