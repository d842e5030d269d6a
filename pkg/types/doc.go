// Package types contains the shared types used across dots packages.
//
// Keeping these in a leaf package avoids import cycles between the
// resolver, rule evaluation, and reconciliation packages that all
// exchange the same data.
package types
