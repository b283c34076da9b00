// Package registry provides the app registry: the ordered collection of
// apps fetched from /app.
//
// The registry is created once per application context and populated by a
// fetch. The remote endpoint wraps the list in an envelope, so every response
// goes through the unwrap step before it reaches the collection.
//
// Components:
//   - Registry: ordered, ID-keyed collection of records
//   - Unwrap: envelope decoding and schema validation
//   - Future: completion signal for asynchronous fetches
//
// Features:
//   - Smart merge on fetch (existing records updated in place)
//   - Lenient or strict handling of a missing apps field
//   - add/remove/change/reset/request/sync/error events
//   - Lifecycle state: empty, fetching, populated, error
//
// Example Usage:
//
//	reg := registry.New(client, "/app").WithLogger(logger)
//	if err := reg.FetchAsync(ctx).Wait(ctx); err != nil {
//		return err
//	}
//	for _, app := range reg.Apps() {
//		fmt.Println(app.ID, app.Name)
//	}
package registry
