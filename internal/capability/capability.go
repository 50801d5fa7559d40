package capability

import (
	"context"
	"log/slog"
	"slices"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/pkg/slogx"
)

// Launcher starts front-end applications and brings them to the foreground.
type Launcher interface {
	StartApp(ctx context.Context, name, version string) error
	DisplayApp(ctx context.Context, name, version string) error
}

// Capability is a named, fixed vocabulary of actions flowing between voice
// agents (upstream) and applications (downstream).
type Capability struct {
	kind     Kind
	launcher Launcher
}

func (c *Capability) Kind() Kind {
	return c.kind
}

// Name returns the capability name, empty for an unknown kind.
func (c *Capability) Name() string {
	return c.kind.String()
}

// Upstream returns the actions voice agents publish to applications.
func (c *Capability) Upstream() []string {
	return slices.Clone(vocabularies[c.kind].upstream)
}

// Downstream returns the actions applications publish to voice agents.
func (c *Capability) Downstream() []string {
	return slices.Clone(vocabularies[c.kind].downstream)
}

func (c *Capability) IsUpstream(action string) bool {
	return slices.Contains(vocabularies[c.kind].upstream, action)
}

func (c *Capability) IsDownstream(action string) bool {
	return slices.Contains(vocabularies[c.kind].downstream, action)
}

// Supports reports whether action is part of the capability's vocabulary.
func (c *Capability) Supports(action string) bool {
	return c.IsUpstream(action) || c.IsDownstream(action)
}

// OnMessagePublished runs after an upstream action was published. Some actions
// launch the application that renders them, failures to do so are only logged.
func (c *Capability) OnMessagePublished(ctx context.Context, action string) {
	v, ok := vocabularies[c.kind]
	if !ok || action != v.trigger || c.launcher == nil {
		return
	}

	slog.InfoContext(ctx, "launching application",
		slogx.LoggerName("vshl::capabilities::"+v.name),
		slogx.Action(action),
		slog.String("app", v.app.name),
	)
	if err := c.launcher.StartApp(ctx, v.app.name, v.app.version); err != nil {
		slog.WarnContext(ctx, "failed to start application", slogx.Capability(v.name), slog.String("app", v.app.name), slogx.Error(err))
	}
	if err := c.launcher.DisplayApp(ctx, v.app.name, v.app.version); err != nil {
		slog.WarnContext(ctx, "failed to display application", slogx.Capability(v.name), slog.String("app", v.app.name), slogx.Error(err))
	}
}

// Factory hands out one Capability per kind, all sharing the same launcher.
type Factory struct {
	capabilities map[Kind]*Capability
}

func NewFactory(launcher Launcher) *Factory {
	f := &Factory{capabilities: make(map[Kind]*Capability, len(kinds))}
	for _, k := range kinds {
		f.capabilities[k] = &Capability{kind: k, launcher: launcher}
	}
	return f
}

func (f *Factory) GuiMetadata() *Capability  { return f.capabilities[GuiMetadata] }
func (f *Factory) PhoneControl() *Capability { return f.capabilities[PhoneControl] }
func (f *Factory) Navigation() *Capability   { return f.capabilities[Navigation] }

// Capability returns the capability of kind k.
func (f *Factory) Capability(k Kind) (*Capability, error) {
	c, ok := f.capabilities[k]
	if !ok {
		return nil, fault.NotFound("capability kind %d", int(k))
	}
	return c, nil
}

// ByName returns the capability called name.
func (f *Factory) ByName(name string) (*Capability, error) {
	k, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return f.Capability(k)
}
