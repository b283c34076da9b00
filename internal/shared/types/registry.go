package types

import (
	"encoding/json"
	"time"
)

// Envelope is the wrapper the remote API puts around every response.
// Apps stays raw so the unwrap step can tell a missing field from an empty list.
type Envelope struct {
	Apps   json.RawMessage `json:"apps,omitempty"`
	Result string          `json:"result,omitempty"`
	Text   string          `json:"text,omitempty"`
	Errors any             `json:"errors,omitempty"`
}

// ResultError marks an envelope describing a failed API call
const ResultError = "error"

// HasApps reports whether the apps field was present and not null
func (e Envelope) HasApps() bool {
	return len(e.Apps) > 0 && string(e.Apps) != "null"
}

// IsError reports whether the server flagged the call as failed
func (e Envelope) IsError() bool {
	return e.Result == ResultError
}

// AppList is the collection payload served at AppEndpoint
type AppList struct {
	Apps []App `json:"apps"`
}

// RegistryStats contains registry statistics
type RegistryStats struct {
	TotalApps  int        `json:"total_apps"`
	State      string     `json:"state"`
	LastSynced *time.Time `json:"last_synced,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}
