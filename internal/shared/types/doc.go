// Package types provides shared data structures for appsync.
//
// Core Types:
//   - App: one app entity with typed id/uuid/name and free-form attributes
//   - Envelope: the wrapper the remote API puts around responses
//   - AppList: the collection payload ({"apps": [...]})
//   - RegistryStats: registry statistics
//
// Example Usage:
//
//	var app types.App
//	if err := json.Unmarshal(body, &app); err != nil {
//	    return err
//	}
//	_ = app.Set("icon", "calculator.png")
package types
