package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/event"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/lifecycle"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/techctx"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/transport"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

// ParamSite is the persistent site identifier
const ParamSite = "s"

// TrackerConfig holds configuration for the tracker
type TrackerConfig struct {
	Site       string   `json:"site"`
	Endpoint   string   `json:"endpoint"`
	APIKey     string   `json:"api_key"`
	AppVersion string   `json:"app_version"`
	Plugins    []string `json:"plugins"`
	// Location decides lifecycle day, week and month boundaries. Default UTC.
	Location *time.Location `json:"-"`
	// DisableTechContext leaves out the os, arch and runtime parameters
	DisableTechContext bool `json:"disable_tech_context"`
}

// Tracker builds hits from events and lifecycle metrics and sends them one at a time
type Tracker struct {
	config    TrackerConfig
	buffer    *param.Buffer
	lifecycle *lifecycle.Engine
	transport transport.Transport
	listener  Listener
	clock     func() time.Time
	plugins   map[string]bool
}

// Option configures a Tracker
type Option func(*trackerOptions)

type trackerOptions struct {
	transport transport.Transport
	listener  Listener
	clock     func() time.Time
	lifecycle []lifecycle.Option
}

// WithTransport replaces the HTTP transport
func WithTransport(t transport.Transport) Option {
	return func(o *trackerOptions) { o.transport = t }
}

// WithListener replaces the logging listener
func WithListener(l Listener) Option {
	return func(o *trackerOptions) { o.listener = l }
}

// WithClock sets the time source for launches and lifecycle metrics
func WithClock(clock func() time.Time) Option {
	return func(o *trackerOptions) { o.clock = clock }
}

// WithLifecycleOptions passes options to the lifecycle engine
func WithLifecycleOptions(opts ...lifecycle.Option) Option {
	return func(o *trackerOptions) { o.lifecycle = append(o.lifecycle, opts...) }
}

// New creates a tracker keeping its lifecycle record in store
func New(cfg TrackerConfig, store storage.Store, opts ...Option) (*Tracker, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.AppVersion == "" {
		return nil, fmt.Errorf("app version is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:8080/hit"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	o := &trackerOptions{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.listener == nil {
		o.listener = NewLogListener()
	}
	if o.transport == nil {
		trans, err := transport.NewHTTP(cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		o.transport = trans
	}

	t := &Tracker{
		config:    cfg,
		transport: o.transport,
		listener:  o.listener,
		clock:     o.clock,
		plugins:   make(map[string]bool, len(cfg.Plugins)),
	}
	for _, p := range cfg.Plugins {
		t.plugins[p] = true
	}

	t.buffer = param.NewBuffer(param.WithWarningHandler(func(err *param.EncodingError) {
		t.listener.WarningDidOccur(err.Error())
	}))
	lifecycleOpts := append([]lifecycle.Option{
		lifecycle.WithClock(o.clock),
		lifecycle.WithLocation(cfg.Location),
	}, o.lifecycle...)
	t.lifecycle = lifecycle.New(store, lifecycleOpts...)

	if cfg.Site != "" {
		if err := t.buffer.Set(param.Persistent, ParamSite, param.Static(cfg.Site), param.Options{Relative: param.RelativeFirst}); err != nil {
			return nil, err
		}
	}
	if !cfg.DisableTechContext {
		if err := techctx.NewCollector(cfg.AppVersion).Register(t.buffer); err != nil {
			return nil, fmt.Errorf("failed to register technical context: %w", err)
		}
	}

	return t, nil
}

// Buffer returns the parameter buffer hits are built from
func (t *Tracker) Buffer() *param.Buffer {
	return t.buffer
}

// Lifecycle returns the lifecycle engine
func (t *Tracker) Lifecycle() *lifecycle.Engine {
	return t.lifecycle
}

// Launch records the process launch. Call it once, before the first hit.
func (t *Tracker) Launch(ctx context.Context) (lifecycle.State, error) {
	state, err := t.lifecycle.OnLaunch(ctx, t.config.AppVersion, t.clock())
	if err != nil {
		t.listener.ErrorDidOccur(err)
		return lifecycle.State{}, err
	}
	return state, nil
}

// SetParam sets a parameter for the next hit only
func (t *Tracker) SetParam(name, value string, opts param.Options) error {
	return t.set(param.Volatile, name, param.Static(value), opts)
}

// SetParamFunc sets a parameter for the next hit, evaluated when the hit is built
func (t *Tracker) SetParamFunc(name string, value param.Closure, opts param.Options) error {
	return t.set(param.Volatile, name, value, opts)
}

// SetPersistentParam sets a parameter sent with every hit until unset
func (t *Tracker) SetPersistentParam(name, value string, opts param.Options) error {
	return t.set(param.Persistent, name, param.Static(value), opts)
}

// AppendParam adds a value to a parameter of the next hit
func (t *Tracker) AppendParam(name, value string, opts param.Options) error {
	if err := t.buffer.Append(param.Volatile, name, param.Static(value), opts); err != nil {
		t.listener.WarningDidOccur(err.Error())
		return err
	}
	return nil
}

// UnsetParam removes a parameter from the next hit
func (t *Tracker) UnsetParam(name string) {
	t.buffer.Unset(param.Volatile, name)
}

// UnsetPersistentParam stops sending a persistent parameter
func (t *Tracker) UnsetPersistentParam(name string) {
	t.buffer.Unset(param.Persistent, name)
}

func (t *Tracker) set(c param.Collection, name string, value param.Closure, opts param.Options) error {
	if err := t.buffer.Set(c, name, value, opts); err != nil {
		t.listener.WarningDidOccur(err.Error())
		return err
	}
	return nil
}

// Track adds the parameters of ev to the next hit. Partner events are
// skipped with a warning unless their plugin is enabled.
func (t *Tracker) Track(ev event.Event) error {
	if p, ok := ev.(event.Partner); ok && !t.plugins[p.Name] {
		t.listener.WarningDidOccur(fmt.Sprintf("%s plugin not enabled", p.Name))
		return nil
	}
	if err := event.Apply(t.buffer, ev); err != nil {
		t.listener.ErrorDidOccur(err)
		return err
	}
	return nil
}

// BuildHit flattens the next hit and clears its volatile parameters.
// Lifecycle metrics are added under stc when available; when they are not the
// hit is still built and a warning is reported.
func (t *Tracker) BuildHit(ctx context.Context) []param.Pair {
	snap, err := t.lifecycle.Snapshot(ctx)
	switch {
	case err == nil:
		lifecycleJSON := param.JSON(map[string]any{"lifecycle": snap})
		if err := t.buffer.Append(param.Volatile, event.ParamJSON, lifecycleJSON, param.Options{Type: param.TypeJSON, Encode: true}); err != nil {
			t.listener.WarningDidOccur(err.Error())
		}
	case errors.Is(err, lifecycle.ErrNoLifecycle):
		t.listener.WarningDidOccur("lifecycle metrics unavailable: tracker not launched")
	default:
		t.listener.WarningDidOccur(fmt.Sprintf("lifecycle metrics unavailable: %v", err))
	}

	hit := t.buffer.TakeHit()
	t.listener.BuildDidEnd(hit)
	return hit
}

// Send builds the next hit and hands it to the transport
func (t *Tracker) Send(ctx context.Context) error {
	hit := t.BuildHit(ctx)
	err := t.transport.Send(ctx, hit)
	t.listener.SendDidEnd(hit, err)
	if err != nil {
		return fmt.Errorf("failed to send hit: %w", err)
	}
	return nil
}

// Dispatch tracks ev and sends the resulting hit
func (t *Tracker) Dispatch(ctx context.Context, ev event.Event) error {
	if err := t.Track(ev); err != nil {
		return err
	}
	return t.Send(ctx)
}
