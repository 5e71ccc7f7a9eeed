// Package metadata records a JSON summary next to each export: pagination
// and retry counts, failed detail chunks and how many records were dropped,
// excluded or written.
package metadata
