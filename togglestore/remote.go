package togglestore

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron/v3"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Remote pulls user toggles from an HTTP endpoint returning JSON of the
// form {"toggles": {"news.premium": true}}. Entries are served from the
// last good snapshot; until the first successful refresh every lookup is
// unknown, which is how waiting for the backend is expressed. Refresh runs
// on demand, on a poll loop, or on a cron schedule.
type Remote struct {
	client *resty.Client
	url    string
	log    *slog.Logger

	mu        sync.Mutex
	toggles   map[features.Path]bool
	loaded    bool
	observers []preconditions.ToggleObserver

	cron *cron.Cron
}

type remotePayload struct {
	Toggles map[string]bool `json:"toggles"`
}

type RemoteOption func(r *Remote)

// WithTimeout bounds each refresh request.
func WithTimeout(timeout time.Duration) RemoteOption {
	return func(r *Remote) {
		r.client.SetTimeout(timeout)
	}
}

// WithRemoteLogger injects a structured logger.
func WithRemoteLogger(log *slog.Logger) RemoteOption {
	return func(r *Remote) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRemote creates a remote toggle store. No request is made until
// Refresh, Start, or StartSchedule is called.
func NewRemote(url string, options ...RemoteOption) *Remote {
	r := &Remote{
		client: resty.New().SetHeader("User-Agent", userAgent()),
		url:    url,
		log:    discardLogger(),
	}
	for _, opt := range options {
		opt(r)
	}
	r.log = r.log.With(slog.String("toggle_url", url))
	return r
}

// Refresh fetches the toggle snapshot once and notifies observers.
func (r *Remote) Refresh(ctx context.Context) error {
	var payload remotePayload
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&payload).
		// Decode the body even when the backend omits or mislabels the
		// Content-Type header; resty skips unmarshalling otherwise.
		ForceContentType("application/json").
		Get(r.url)
	if err != nil {
		return fmt.Errorf("togglestore: refresh failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("togglestore: refresh failed: %s", resp.Status())
	}

	toggles := make(map[features.Path]bool, len(payload.Toggles))
	for path, enabled := range payload.Toggles {
		toggles[features.Path(path)] = enabled
	}

	r.mu.Lock()
	r.toggles = toggles
	r.loaded = true
	observers := make([]preconditions.ToggleObserver, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	r.log.Debug("remote toggles refreshed", slog.Int("count", len(toggles)))
	for _, o := range observers {
		o.ToggleChanged()
	}
	return nil
}

// Start polls the endpoint on the given interval until ctx is cancelled,
// backing off after consecutive failures.
func (r *Remote) Start(ctx context.Context, interval time.Duration) {
	go func() {
		retry := newBackoff()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := r.Refresh(ctx); err != nil {
				r.log.Warn("remote toggle refresh failed", "error", err)
				retry.wait(ctx)
			} else {
				retry.reset()
				select {
				case <-ticker.C:
				case <-ctx.Done():
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}

// StartSchedule refreshes on a cron schedule ("*/5 * * * *"). Stop tears it
// down.
func (r *Remote) StartSchedule(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := r.Refresh(context.Background()); err != nil {
			r.log.Warn("scheduled toggle refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("togglestore: invalid refresh schedule %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Stop halts any cron schedule started with StartSchedule.
func (r *Remote) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

func (r *Remote) IsEnabled(feature features.Path) tristate.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return tristate.Unknown
	}
	enabled, ok := r.toggles[feature]
	if !ok {
		return tristate.Unknown
	}
	return tristate.FromBool(enabled)
}

func (r *Remote) AddObserver(o preconditions.ToggleObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// userAgent returns "featuregate-go/<version>", or "featuregate-go/unknown"
// when build info is unavailable (e.g. during development).
func userAgent() string {
	const name = "featuregate-go"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return name + "/unknown"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return name + "/unknown"
	}
	return name + "/" + version
}
