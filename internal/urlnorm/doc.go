// Package urlnorm canonicalizes track locations into the encoded form the
// catalog stores in songs.url.
//
// Legacy library exports percent-encode paths with decomposed diacritics
// (a base letter followed by a combining mark) and escape ampersands as XML
// entities. The catalog keys rows on a precomposed (NFC) path re-encoded with a
// narrow set of characters left unescaped. Normalize bridges the two forms and
// is idempotent, so already canonical URLs pass through unchanged.
//
// Rewriter applies an ordered list of regular-expression substitutions used to
// bridge known path-prefix differences between two machines, such as differing
// library mount roots.
package urlnorm
