// Package content derives stable, content-addressed identifiers for
// media blobs and validates identifiers supplied by callers.
package content
