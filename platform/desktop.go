// Package platform adapts the operating system's notification facilities to
// notifier.Platform.
package platform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"todo-app/notifier"
)

// Desktop shows notifications with notify-send on Linux and osascript on
// macOS. Once a click handler is set, notify-send waits for the default
// action and reports the click. osascript cannot report clicks.
type Desktop struct {
	mu      sync.Mutex
	perm    notifier.Permission
	onClick func(taskID int)
	// command overrides the binary lookup, mainly for tests
	command func(name string, args ...string) *exec.Cmd
	lookup  func(file string) (string, error)
	goos    string
}

func NewDesktop() *Desktop {
	return &Desktop{
		perm:    notifier.PermissionDefault,
		command: exec.Command,
		lookup:  exec.LookPath,
		goos:    runtime.GOOS,
	}
}

func (d *Desktop) binary() string {
	switch d.goos {
	case "linux", "freebsd", "openbsd":
		return "notify-send"
	case "darwin":
		return "osascript"
	}
	return ""
}

func (d *Desktop) Permission() notifier.Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.perm
}

// RequestPermission grants when the notification binary is available.
func (d *Desktop) RequestPermission(ctx context.Context) (notifier.Permission, error) {
	if err := ctx.Err(); err != nil {
		return d.Permission(), err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	bin := d.binary()
	if bin == "" {
		d.perm = notifier.PermissionUnsupported
		return d.perm, nil
	}
	if _, err := d.lookup(bin); err != nil {
		d.perm = notifier.PermissionUnsupported
		return d.perm, nil
	}
	d.perm = notifier.PermissionGranted
	return d.perm, nil
}

func (d *Desktop) SetClickHandler(fn func(taskID int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onClick = fn
}

func (d *Desktop) clickHandler() func(int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onClick
}

func (d *Desktop) Show(n notifier.Notification) error {
	if d.Permission() != notifier.PermissionGranted {
		return fmt.Errorf("show notification: permission %s", d.Permission())
	}
	var cmd *exec.Cmd
	switch d.binary() {
	case "notify-send":
		args := []string{"--app-name=todo"}
		if n.Icon != "" {
			args = append(args, "-i", n.Icon)
		}
		click := d.clickHandler()
		if click == nil || n.TaskID == 0 {
			cmd = d.command("notify-send", append(args, n.Title, n.Body)...)
			break
		}
		args = append(args, "--action=default=Abrir", "--wait", n.Title, n.Body)
		return d.showAndWait(d.command("notify-send", args...), n.TaskID, click)
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		cmd = d.command("osascript", "-e", script)
	default:
		return notifier.ErrUnsupported
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	return nil
}

// showAndWait starts cmd and reports a click once notify-send prints the
// default action. A dismissed or expired notification prints nothing.
func (d *Desktop) showAndWait(cmd *exec.Cmd, taskID int, click func(int)) error {
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			return
		}
		if strings.TrimSpace(out.String()) == "default" {
			click(taskID)
		}
	}()
	return nil
}

// Focus is a no-op: the dashboard already owns the terminal.
func (d *Desktop) Focus() error { return nil }

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
