// Package appctl launches and raises front-end applications through the
// platform's application framework and home screen bindings.
package appctl

import (
	"context"
	"log/slog"

	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
)

const (
	appFrameworkAPI = "afm-main"
	verbOnce        = "once"
	homescreenAPI   = "homescreen"
	verbTapShortcut = "tap_shortcut"
)

// Controller starts applications and brings them to the foreground.
type Controller struct {
	caller backend.Caller
}

func New(caller backend.Caller) *Controller {
	return &Controller{caller: caller}
}

// AppID returns the framework identifier for an application.
func AppID(name, version string) string {
	return name + "@" + version
}

// StartApp asks the application framework to start the application once.
func (c *Controller) StartApp(ctx context.Context, name, version string) error {
	return c.call(ctx, appFrameworkAPI, verbOnce, name, version)
}

// DisplayApp asks the home screen to show the application.
func (c *Controller) DisplayApp(ctx context.Context, name, version string) error {
	return c.call(ctx, homescreenAPI, verbTapShortcut, name, version)
}

func (c *Controller) call(ctx context.Context, api, verb, name, version string) error {
	if name == "" {
		return fault.Validation("empty application name")
	}
	id := AppID(name, version)
	if err := c.caller.Call(ctx, api, verb, id); err != nil {
		slog.WarnContext(ctx, "application call failed",
			slogx.LoggerName("appctl"),
			slog.String("app", id),
			slog.String("verb", verb),
			slogx.Error(err),
		)
		return err
	}
	slog.DebugContext(ctx, "application call succeeded", slogx.LoggerName("appctl"), slog.String("app", id), slog.String("verb", verb))
	return nil
}
