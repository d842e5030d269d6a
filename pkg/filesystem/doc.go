// Package filesystem provides filesystem implementations for dots.
//
// This package contains implementations of the types.FS interface,
// including the standard OS filesystem and an afero-backed one for
// tests, plus the lstat-based status classification the
// reconciliation engine runs on.
package filesystem
