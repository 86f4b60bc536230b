// Package calabash drives an application under test through a Calabash
// server: element queries, gestures, text entry, recording playback and
// polling waits.
package calabash

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/devicelab-dev/calabash-bridge/pkg/config"
	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
	"github.com/devicelab-dev/calabash-bridge/pkg/transport"
)

// PlaybackLoader returns the base64 event data of a recording.
type PlaybackLoader interface {
	Load(name, os, device string) (string, error)
}

// Bridge is the single entry point for every remote action. It owns one
// session: calls from concurrent goroutines run one at a time, each holding
// the session through its settle pause.
type Bridge struct {
	transport transport.Transport
	session   *semaphore.Weighted
	cfg       *config.Config
	pause     time.Duration
	waits     config.WaitDefaults
	listener  config.ScreenshotListener
	playback  PlaybackLoader
	disposed  atomic.Bool

	sleep func(ctx context.Context, d time.Duration)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithPause overrides the settle pause from the configuration.
func WithPause(d time.Duration) Option {
	return func(b *Bridge) { b.pause = d }
}

// WithScreenshotListener overrides the listener from the configuration.
func WithScreenshotListener(l config.ScreenshotListener) Option {
	return func(b *Bridge) { b.listener = l }
}

// WithPlaybackLoader sets where Playback reads recordings from.
func WithPlaybackLoader(l PlaybackLoader) Option {
	return func(b *Bridge) { b.playback = l }
}

// New creates a bridge over t. A nil cfg uses config.Default. Invalid
// configuration is a setup error.
func New(t transport.Transport, cfg *config.Config, opts ...Option) (*Bridge, error) {
	if t == nil {
		return nil, core.ErrInvalidConfig.WithMessage("transport is required")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bridge{
		transport: t,
		session:   semaphore.NewWeighted(1),
		cfg:       cfg,
		pause:     cfg.Pause(),
		waits:     resolveWaitDefaults(cfg.Wait),
		listener:  cfg.ScreenshotListener,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Dial connects to the server named by cfg.Endpoint.
func Dial(cfg *config.Config, opts ...Option) (*Bridge, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return New(transport.NewClient(cfg.Endpoint, cfg.RequestTimeout), cfg, opts...)
}

// Config returns the configuration the bridge was built with.
func (b *Bridge) Config() *config.Config {
	return b.cfg
}

// Disposed reports whether Dispose has been called.
func (b *Bridge) Disposed() bool {
	return b.disposed.Load()
}

// Dispose ends the session. Every later call fails with core.ErrDisposed.
func (b *Bridge) Dispose() error {
	if !b.disposed.CompareAndSwap(false, true) {
		return nil
	}
	logger.Info("Disposing bridge")
	return b.transport.Close()
}

func (b *Bridge) ensureNotDisposed() error {
	if b.disposed.Load() {
		return core.ErrDisposed
	}
	return nil
}

// call describes one remote action.
type call struct {
	op      string
	query   string
	args    transport.Args
	failure string // message prefix on failure
	settle  bool
}

// do runs c through the transport: disposed check, session acquire, invoke,
// screenshot notification, settle pause. Failures become core.ErrActionFailed.
func (b *Bridge) do(ctx context.Context, c call) (decode.Value, error) {
	if err := b.ensureNotDisposed(); err != nil {
		return decode.Null(), err
	}

	if err := b.session.Acquire(ctx, 1); err != nil {
		return decode.Null(), b.actionError(c, err)
	}
	defer b.session.Release(1)

	reply, err := b.transport.Invoke(ctx, c.op, c.args)
	if err != nil {
		logger.Error("%s: %v", c.failure, err)
		return decode.Null(), b.actionError(c, err)
	}

	b.notify(reply.Embeds)
	if c.settle {
		b.sleep(ctx, b.pause)
	}
	return reply.Value, nil
}

func (b *Bridge) actionError(c call, err error) error {
	if errors.Is(err, transport.ErrClosed) {
		return core.ErrDisposed.WithCause(err)
	}
	details := map[string]interface{}{"op": c.op}
	if c.query != "" {
		details["query"] = c.query
	}
	if len(c.args) > 0 {
		details["args"] = map[string]interface{}(c.args)
	}
	return core.ErrActionFailed.
		WithMessage(c.failure).
		WithReason(cleanMessage(err.Error()), err).
		WithDetails(details)
}

func (b *Bridge) notify(embeds []transport.Embed) {
	if b.listener == nil {
		return
	}
	for _, e := range embeds {
		b.listener.ScreenshotTaken(e.Path, e.Type, e.Name)
	}
}

// boilerplate are setup hints the server appends to its errors.
var boilerplate = strings.NewReplacer(
	"Make sure you are running this command from your project directory, \n", "",
	"i.e., the directory containing your .xcodeproj file.\n", "",
	"In features/support/01_launch.rb set APP_BUNDLE_PATH to\n", "set APP_BUNDLE_PATH to\n",
)

func cleanMessage(msg string) string {
	return boilerplate.Replace(msg)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
