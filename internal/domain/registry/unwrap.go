package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// UnwrapMode controls what happens when a response lacks the apps field
type UnwrapMode int

const (
	// UnwrapLenient treats a missing apps field as an empty list and logs a warning
	UnwrapLenient UnwrapMode = iota
	// UnwrapStrict fails with ErrMissingApps
	UnwrapStrict
)

// String returns the string representation of the mode
func (m UnwrapMode) String() string {
	if m == UnwrapStrict {
		return "strict"
	}
	return "lenient"
}

// ErrMissingApps is returned when the response envelope has no apps field
var ErrMissingApps = errors.New("response has no apps field")

// UnwrapError describes a response rejected at the unwrap boundary
type UnwrapError struct {
	// Index is the offending entry, or -1 when the envelope itself is bad
	Index  int
	Reason string
	Err    error
}

func (e *UnwrapError) Error() string {
	msg := e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("apps[%d]: %s", e.Index, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "unwrap apps response: " + msg
}

func (e *UnwrapError) Unwrap() error {
	return e.Err
}

// namePolicy strips all markup from display names
var namePolicy = bluemonday.StrictPolicy()

// Unwrap extracts the apps list from a raw response envelope.
// Entries keep response order. Every entry must carry an id; a uuid, when
// present, must parse. A missing or null apps field yields ErrMissingApps.
func Unwrap(raw []byte) ([]types.App, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &UnwrapError{Index: -1, Reason: "empty response"}
	}
	if !sonic.ConfigStd.Valid(trimmed) {
		return nil, &UnwrapError{Index: -1, Reason: "response is not valid JSON"}
	}
	if trimmed[0] != '{' {
		return nil, &UnwrapError{Index: -1, Reason: "response is not an object"}
	}

	var env types.Envelope
	if err := sonic.ConfigStd.Unmarshal(trimmed, &env); err != nil {
		return nil, &UnwrapError{Index: -1, Reason: "malformed envelope", Err: err}
	}
	if !env.HasApps() {
		return nil, ErrMissingApps
	}

	var entries []json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(env.Apps, &entries); err != nil {
		return nil, &UnwrapError{Index: -1, Reason: "apps is not a list", Err: err}
	}

	apps := make([]types.App, 0, len(entries))
	for i, entry := range entries {
		app, err := decodeEntry(entry)
		if err != nil {
			var unwrapErr *UnwrapError
			if errors.As(err, &unwrapErr) {
				unwrapErr.Index = i
				return nil, unwrapErr
			}
			return nil, &UnwrapError{Index: i, Reason: "malformed entry", Err: err}
		}
		apps = append(apps, app)
	}

	return apps, nil
}

func decodeEntry(entry json.RawMessage) (types.App, error) {
	var app types.App
	if err := sonic.ConfigStd.Unmarshal(entry, &app); err != nil {
		return types.App{}, err
	}
	if app.ID.IsZero() {
		return types.App{}, &UnwrapError{Reason: "missing id"}
	}
	if app.UUID != "" {
		if _, err := uuid.Parse(app.UUID); err != nil {
			return types.App{}, &UnwrapError{Reason: "invalid uuid", Err: err}
		}
	}
	app.Name = sanitizeName(app.Name)
	return app, nil
}

// sanitizeName reads name as HTML text: markup is removed and character
// references are decoded, so "Tom &amp; Jerry" and "<b>Tom</b> & Jerry" both
// become "Tom & Jerry".
func sanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(namePolicy.Sanitize(name)))
}
