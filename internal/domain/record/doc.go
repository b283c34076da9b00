// Package record implements the single app entity synchronized at /app.
//
// Every operation targets the same fixed path; the record's ID is never
// composed into the URL. Save picks POST or PUT from whether the record has
// an ID yet.
package record
