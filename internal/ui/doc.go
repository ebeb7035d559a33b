// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The screen is split into panes that tab cycles through:
//  1. [SearchPane] : Type a query; matches open in a dropdown that closes when focus leaves
//  2. [SeedsPane] : Enriched seed songs, with pending ones marked as loading
//  3. [OutputPane] : The last received recommendations
//  4. [HistoryPane] : Saved sessions, most recent first; enter restores one
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Enrichment and recommendation requests run as commands; progress flows through a channel from the tasks Engine.
// Highlighting an enriched song starts its audio preview and moving away stops it.
package ui
