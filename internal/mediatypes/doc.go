// Package mediatypes classifies files by extension and maps extensions
// to MIME types for the vault import pipeline and HTTP adapter.
package mediatypes
