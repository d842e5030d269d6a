// Package rules models the `use` rules of a dots configuration and
// evaluates them into concrete (destination, source) link targets.
//
// A rule carries an optional guard, variable bindings, an optional
// suffix-to-destination target table and exclusion templates. Rules
// decode from several TOML shorthands (string, bool, table, array of
// tables) and evaluate through the template path resolver.
package rules
