// Package tasks orchestrates the recommender operations of a session with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Enrich] : fetch metadata for one seed
//     - Looks the id up in the catalog
//     - Merges the recommender's record over the catalog fields
//     - Falls back to catalog fields when the recommender fails, so an add is never lost
//
//  2. [Engine.EnrichMany] : enrich several seeds with a small worker pool
//
//  3. [Engine.PickRandom] : pick a random catalog song that is not already a seed
//
//  4. [Engine.Recommend] : request recommendations, then append the session to history
//     - History write failures are reported in [RecommendResult] and never fail the run
//     - A failed request returns an error and no session, leaving the caller's output alone
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default
// so a slow or absent reader never blocks the operation.
package tasks
