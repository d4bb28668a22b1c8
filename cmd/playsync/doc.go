// Package main hosts the playsync CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the run logger
// and opens the catalog, then hands each scenario to the reconcile package.
// Mutating commands are dry runs unless --write-updates is given; every run
// ends with a summary table.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
