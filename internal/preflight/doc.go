// Package preflight provides readiness checks for the catalog, the legacy
// library export and the listen service that playsync depends on.
//
// The CLI "playsync check" command runs RunAll and renders the results as a
// table. Checks for optional inputs are skipped when they are not
// configured.
package preflight
