// Package pipeline orchestrates the vault import flow: enumeration,
// content identification, transcoding, metadata extraction, catalog
// indexing, and original backup.
//
// Each file moves through a short linear state machine with a failure
// exit at every step; one bad file never aborts the batch. Re-running
// the pipeline over unchanged inputs produces the same content ids and
// replaces catalog rows instead of duplicating them.
package pipeline
