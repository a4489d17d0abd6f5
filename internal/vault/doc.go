// Package vault owns the on-disk directory structure of a photovault:
// the fixed subtree under the vault root and date-bucketed path derivation
// for compressed artifacts.
package vault
