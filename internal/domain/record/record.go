package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/appsync/internal/shared/id"
	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// ErrDestroyed is returned when syncing a record after Destroy succeeded
var ErrDestroyed = errors.New("record has been destroyed")

// Syncer performs one request against the remote API and returns the raw body
type Syncer interface {
	Sync(ctx context.Context, method, path string, body any) ([]byte, error)
}

// Record is a single app entity synchronized against a fixed endpoint
type Record struct {
	mu        sync.RWMutex
	app       types.App // Protected by mu
	destroyed bool      // Protected by mu

	syncer   Syncer
	endpoint string
	logger   *zap.Logger
}

// New creates an unsaved record bound to endpoint
func New(syncer Syncer, endpoint string) *Record {
	if endpoint == "" {
		endpoint = types.AppEndpoint
	}
	return &Record{
		syncer:   syncer,
		endpoint: endpoint,
		logger:   zap.NewNop(),
	}
}

// WithLogger adds logging to the record
func (r *Record) WithLogger(logger *zap.Logger) *Record {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithApp seeds the record with existing attributes
func (r *Record) WithApp(app types.App) *Record {
	r.mu.Lock()
	r.app = app.Clone()
	r.mu.Unlock()
	return r
}

// URL returns the path the record syncs against. It never includes the ID.
func (r *Record) URL() string {
	return r.endpoint
}

// IsNew reports whether the record has never been saved
func (r *Record) IsNew() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app.IsNew()
}

// ID returns the server-assigned identifier
func (r *Record) ID() id.AppID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app.ID
}

// Name returns the display name
func (r *Record) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app.Name
}

// App returns a copy of the current attributes
func (r *Record) App() types.App {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app.Clone()
}

// Get returns a single attribute
func (r *Record) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app.Get(key)
}

// Set changes a single attribute locally
func (r *Record) Set(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.app.Set(key, value)
}

// Merge copies the populated fields of app onto the record and reports whether anything changed
func (r *Record) Merge(app types.App) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.app.Clone()
	r.app.Merge(app)
	return !before.Equal(r.app)
}

// Destroyed reports whether Destroy completed
func (r *Record) Destroyed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.destroyed
}

// Fetch reads the entity at the endpoint and merges it into the record
func (r *Record) Fetch(ctx context.Context) error {
	if r.Destroyed() {
		return ErrDestroyed
	}

	body, err := r.syncer.Sync(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return fmt.Errorf("fetch app: %w", err)
	}

	return r.apply(body)
}

// Save creates the entity (POST) when new and updates it (PUT) otherwise.
// Whatever the server returns is merged into the record.
func (r *Record) Save(ctx context.Context) error {
	if r.Destroyed() {
		return ErrDestroyed
	}

	snapshot := r.App()
	method := http.MethodPut
	if snapshot.IsNew() {
		method = http.MethodPost
	}

	body, err := r.syncer.Sync(ctx, method, r.endpoint, snapshot)
	if err != nil {
		return fmt.Errorf("save app: %w", err)
	}

	if err := r.apply(body); err != nil {
		return err
	}

	r.logger.Debug("App saved",
		zap.String("method", method),
		zap.String("id", r.ID().String()),
	)
	return nil
}

// Destroy deletes the entity. A record that was never saved is only marked destroyed.
func (r *Record) Destroy(ctx context.Context) error {
	if r.Destroyed() {
		return nil
	}

	if !r.IsNew() {
		if _, err := r.syncer.Sync(ctx, http.MethodDelete, r.endpoint, nil); err != nil {
			return fmt.Errorf("destroy app: %w", err)
		}
	}

	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
	return nil
}

// apply merges a response body into the record. Empty bodies change nothing.
func (r *Record) apply(body []byte) error {
	app, ok, err := DecodeEntity(body)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	r.Merge(app)
	return nil
}

// DecodeEntity parses a single-entity response. Envelope keys, including a
// collection riding along in "apps", are dropped.
// ok is false for an empty body.
func DecodeEntity(body []byte) (types.App, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return types.App{}, false, nil
	}

	var app types.App
	if err := sonic.ConfigStd.Unmarshal(trimmed, &app); err != nil {
		return types.App{}, false, fmt.Errorf("decode app: %w", err)
	}
	for _, key := range envelopeKeys {
		delete(app.Attributes, key)
	}
	return app, true, nil
}

var envelopeKeys = []string{"result", "text", "errors", "apps"}
