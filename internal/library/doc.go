// Package library decodes an exported legacy media library (an XML property
// list with Tracks and Playlists) into typed records.
//
// Optional track fields are pointers until Impute fills the documented
// defaults, which happens exactly once per track before matching.
package library
