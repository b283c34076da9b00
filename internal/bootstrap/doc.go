// Package bootstrap wires the application context.
//
// A Context replaces process-wide model and collection namespaces: callers
// create one with New, reach entities through ctx.Models and ctx.Collections,
// start the initial registry fetch with Start, and tear everything down with
// Close.
package bootstrap
