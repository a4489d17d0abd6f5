// Package catalog provides the SQLite-backed asset catalog of a vault.
//
// It records one row per imported asset keyed by content id, plus an
// append-only free-text term index used for substring search. The
// database uses WAL mode so readers stay unblocked while the single
// import pipeline writer is active.
package catalog
