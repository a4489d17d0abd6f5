// Package middleware provides the HTTP middleware chain for the vault
// API: W3C request logging, Prometheus metrics, and gzip compression.
package middleware
