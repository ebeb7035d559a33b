// Package session holds the mutable state of one recommendation session: the seed selection,
// the genre and count preferences, and the last received recommendations.
//
// [State] is not safe for concurrent use. The TUI mutates it only from its update loop;
// the HTTP API goes through [Manager], which serializes every mutation.
//
// Seed enrichment is asynchronous. [Selection.Toggle] marks a song pending before the
// metadata request is sent, and [Selection.Resolve] only applies the result if the song
// is still pending when it arrives, so a late response for a song the user already
// removed is discarded.
package session
