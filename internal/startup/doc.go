// Package startup handles configuration loading, environment validation,
// and structured startup/shutdown logging for the vault server.
package startup
