package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/appsync/internal/domain/record"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/appsync/internal/shared/id"
	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// State is the registry's fetch lifecycle
type State int

const (
	StateEmpty State = iota
	StateFetching
	StatePopulated
	StateError
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFetching:
		return "fetching"
	case StatePopulated:
		return "populated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Registry is an ordered collection of app records, unique by ID
type Registry struct {
	mu         sync.RWMutex
	order      []*record.Record            // Protected by mu
	index      map[id.AppID]*record.Record // Protected by mu
	state      State                       // Protected by mu
	lastSynced time.Time                   // Protected by mu
	lastErr    error                       // Protected by mu

	handlersMu  sync.RWMutex
	handlers    map[EventType][]subscription
	nextHandler uint64

	syncer   record.Syncer
	endpoint string
	mode     UnwrapMode
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates an empty registry that fetches from endpoint
func New(syncer record.Syncer, endpoint string) *Registry {
	if endpoint == "" {
		endpoint = types.AppEndpoint
	}
	return &Registry{
		index:    make(map[id.AppID]*record.Record),
		handlers: make(map[EventType][]subscription),
		syncer:   syncer,
		endpoint: endpoint,
		logger:   zap.NewNop(),
	}
}

// WithLogger adds logging to the registry
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// WithUnwrapMode sets how a missing apps field is handled
func (r *Registry) WithUnwrapMode(mode UnwrapMode) *Registry {
	r.mode = mode
	return r
}

// URL returns the endpoint the registry fetches from
func (r *Registry) URL() string {
	return r.endpoint
}

// Len returns the number of records
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// At returns the record at position i, or nil when out of range
func (r *Registry) At(i int) *record.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.order) {
		return nil
	}
	return r.order[i]
}

// Get returns the record with the given ID. Records whose ID changed after
// they were added, by Set or by a Save that assigned one, are found by the new ID.
func (r *Registry) Get(appID id.AppID) (*record.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reindex()
	rec, ok := r.index[appID]
	return rec, ok
}

// Models returns the records in order
func (r *Registry) Models() []*record.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*record.Record, len(r.order))
	copy(out, r.order)
	return out
}

// Apps returns a snapshot of every record's attributes, in order
func (r *Registry) Apps() []types.App {
	models := r.Models()
	apps := make([]types.App, len(models))
	for i, rec := range models {
		apps[i] = rec.App()
	}
	return apps
}

// State returns the current lifecycle state
func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Stats returns registry statistics
func (r *Registry) Stats() types.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := types.RegistryStats{
		TotalApps: len(r.order),
		State:     r.state.String(),
	}
	if !r.lastSynced.IsZero() {
		synced := r.lastSynced
		stats.LastSynced = &synced
	}
	if r.lastErr != nil {
		stats.LastError = r.lastErr.Error()
	}
	return stats
}

// Add appends apps. Apps whose ID is already present are ignored.
// It returns the records now holding each app, in argument order.
func (r *Registry) Add(apps ...types.App) []*record.Record {
	return r.set(apps, setOptions{})
}

// Set merges apps into the registry: existing records are updated in place,
// new ones are added, records missing from apps are removed, and the final
// order follows apps. Duplicate IDs in one call merge into the first occurrence.
func (r *Registry) Set(apps []types.App) []*record.Record {
	return r.set(apps, setOptions{merge: true, remove: true})
}

// Remove drops the records with the given IDs and returns them
func (r *Registry) Remove(ids ...id.AppID) []*record.Record {
	r.mu.Lock()
	r.reindex()
	var events []Event
	var removed []*record.Record
	for _, appID := range ids {
		rec, ok := r.index[appID]
		if !ok {
			continue
		}
		delete(r.index, appID)
		pos := r.position(rec)
		if pos < 0 {
			continue
		}
		r.order = append(r.order[:pos], r.order[pos+1:]...)
		removed = append(removed, rec)
		events = append(events, Event{Type: EventRemove, Record: rec, Index: pos})
	}
	count := len(r.order)
	r.mu.Unlock()

	r.metrics.SetRegistryApps(count)
	r.emit(events...)
	return removed
}

// Reset replaces the contents with apps and emits a single reset event
func (r *Registry) Reset(apps []types.App) []*record.Record {
	r.mu.Lock()
	r.order = nil
	seen := make(map[id.AppID]bool, len(apps))
	for _, app := range apps {
		if !app.ID.IsZero() {
			if seen[app.ID] {
				continue
			}
			seen[app.ID] = true
		}
		r.order = append(r.order, r.newRecord(app))
	}
	r.reindex()
	out := make([]*record.Record, len(r.order))
	copy(out, r.order)
	r.mu.Unlock()

	r.metrics.SetRegistryApps(len(out))
	r.emit(Event{Type: EventReset, Index: -1})
	return out
}

type setOptions struct {
	merge  bool
	remove bool
}

func (r *Registry) set(apps []types.App, opts setOptions) []*record.Record {
	r.mu.Lock()
	r.reindex()

	var added, changed []*record.Record
	result := make([]*record.Record, 0, len(apps))
	seen := make(map[id.AppID]*record.Record, len(apps))
	kept := make(map[*record.Record]bool, len(apps))
	order := make([]*record.Record, 0, len(apps))

	for _, app := range apps {
		if !app.ID.IsZero() {
			if rec, ok := seen[app.ID]; ok {
				if opts.merge && rec.Merge(app) {
					changed = appendOnce(changed, rec)
				}
				result = append(result, rec)
				continue
			}
			if rec, ok := r.index[app.ID]; ok {
				if opts.merge && rec.Merge(app) {
					changed = appendOnce(changed, rec)
				}
				seen[app.ID] = rec
				kept[rec] = true
				order = append(order, rec)
				result = append(result, rec)
				continue
			}
		}

		rec := r.newRecord(app)
		if !app.ID.IsZero() {
			seen[app.ID] = rec
		}
		kept[rec] = true
		order = append(order, rec)
		added = append(added, rec)
		result = append(result, rec)
	}

	var events []Event
	if opts.remove {
		for pos, rec := range r.order {
			if kept[rec] {
				continue
			}
			events = append(events, Event{Type: EventRemove, Record: rec, Index: pos})
		}
		r.order = order
	} else {
		r.order = append(r.order, added...)
	}
	r.reindex()

	for _, rec := range added {
		events = append(events, Event{Type: EventAdd, Record: rec, Index: r.position(rec)})
	}
	for _, rec := range changed {
		events = append(events, Event{Type: EventChange, Record: rec, Index: -1})
	}
	count := len(r.order)
	r.mu.Unlock()

	r.metrics.SetRegistryApps(count)
	r.emit(events...)
	return result
}

// newRecord wraps app in a record sharing the registry's transport. Caller holds mu.
func (r *Registry) newRecord(app types.App) *record.Record {
	return record.New(r.syncer, r.endpoint).WithLogger(r.logger).WithApp(app)
}

// reindex rebuilds the ID index from the records' current IDs so that it
// follows IDs changed through the records themselves. The first record in
// order wins an ID shared by several. Caller holds mu.
func (r *Registry) reindex() {
	clear(r.index)
	for _, rec := range r.order {
		appID := rec.ID()
		if appID.IsZero() {
			continue
		}
		if _, taken := r.index[appID]; !taken {
			r.index[appID] = rec
		}
	}
}

// position returns the index of rec in order, or -1. Caller holds mu.
func (r *Registry) position(rec *record.Record) int {
	for i, candidate := range r.order {
		if candidate == rec {
			return i
		}
	}
	return -1
}

func appendOnce(list []*record.Record, rec *record.Record) []*record.Record {
	for _, existing := range list {
		if existing == rec {
			return list
		}
	}
	return append(list, rec)
}
