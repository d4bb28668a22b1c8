// Package catalog reads and writes the player's SQLite catalog.
//
// The schema is owned by the player and is never migrated here. Every write
// is bound through statement parameters and carries a predicate on the row's
// play state, so a repeated or racing run affects zero rows instead of
// corrupting counts.
package catalog
