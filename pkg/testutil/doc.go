// Package testutil provides test doubles shared across the test suites:
// an in-memory symlink-aware filesystem and a canned shell.
package testutil
