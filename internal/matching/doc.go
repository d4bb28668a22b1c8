// Package matching resolves source track identities to catalog rows.
//
// Strategies are tried in strict priority: the canonical URL, the URL produced
// by the configured rewrite rules, and finally a case-insensitive artist and
// title comparison. Several rows sharing an artist and title are resolved by
// the configured tie-break.
package matching
