// Package exif extracts capture metadata from media blobs.
//
// Extraction is strictly best-effort: corrupt, missing, or unsupported
// metadata degrades to an empty result and never surfaces as an error,
// so callers can always fall back to filesystem timestamps.
package exif
