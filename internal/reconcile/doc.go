// Package reconcile drives the play-history import scenarios.
//
// Every scenario reads its source fully into memory, resolves each record to
// a catalog row through the matching package, merges play state under the
// scenario's policy and applies the result inside a single catalog
// transaction. The transaction is committed only when writes were requested
// and at least one row or playlist item changed; otherwise it is rolled back
// and the catalog file is left untouched.
package reconcile
