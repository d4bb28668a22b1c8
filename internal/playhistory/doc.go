// Package playhistory holds the play-state value types shared by every
// import path and the merge rules that combine them.
//
// A merge never moves LastPlayed backwards and never decrements a count.
// Counts saturate at the uint32 maximum instead of wrapping.
package playhistory
