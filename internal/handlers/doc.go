// Package handlers implements the HTTP API over the vault: batch import
// triggers, direct uploads, catalog queries, and artifact serving.
package handlers
