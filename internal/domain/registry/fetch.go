package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// Parse applies the unwrap step with the registry's mode
func (r *Registry) Parse(raw []byte) ([]types.App, error) {
	apps, err := Unwrap(raw)
	switch {
	case err == nil:
		return apps, nil
	case errors.Is(err, ErrMissingApps) && r.mode == UnwrapLenient:
		r.logger.Warn("Response has no apps field, treating it as empty",
			zap.String("endpoint", r.endpoint),
		)
		r.metrics.IncUnwrapMissing()
		return []types.App{}, nil
	case errors.Is(err, ErrMissingApps):
		r.metrics.IncUnwrapMissing()
		return nil, err
	default:
		r.metrics.IncUnwrapRejected()
		return nil, err
	}
}

// Fetch loads the apps from the endpoint and merges them into the registry.
// On failure the current contents are kept and the state becomes StateError.
func (r *Registry) Fetch(ctx context.Context) error {
	r.mu.Lock()
	r.state = StateFetching
	r.mu.Unlock()
	r.emit(Event{Type: EventRequest, Index: -1})

	start := time.Now()
	body, err := r.syncer.Sync(ctx, http.MethodGet, r.endpoint, nil)
	var apps []types.App
	if err == nil {
		apps, err = r.Parse(body)
	}

	if err != nil {
		err = fmt.Errorf("fetch apps: %w", err)
		r.mu.Lock()
		r.state = StateError
		r.lastErr = err
		r.mu.Unlock()

		r.logger.Error("Failed to fetch apps",
			zap.String("endpoint", r.endpoint),
			zap.Error(err),
		)
		r.emit(Event{Type: EventError, Index: -1, Err: err})
		return err
	}

	r.Set(apps)

	r.mu.Lock()
	r.state = StatePopulated
	r.lastSynced = time.Now()
	r.lastErr = nil
	count := len(r.order)
	r.mu.Unlock()

	r.logger.Info("Apps fetched",
		zap.Int("count", count),
		zap.Duration("elapsed", time.Since(start)),
	)
	r.emit(Event{Type: EventSync, Index: -1})
	return nil
}

// FetchAsync runs Fetch on its own goroutine and returns its completion signal
func (r *Registry) FetchAsync(ctx context.Context) *Future {
	f := newFuture()
	go func() {
		f.resolve(r.Fetch(ctx))
	}()
	return f
}
