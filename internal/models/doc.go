// Package models defines the domain entities shared by the catalog, session, recommender and history layers.
//
//   - [Song] : immutable catalog entry loaded once at startup
//   - [SongMetadata] : a [Song] enriched with preview, canonical and cover URLs
//   - [Session] : seeds, genre filter, result count and last recommendations at a point in time
//
// [Merge] is the single place where server supplied fields are reconciled with the local catalog.
// Every caller (seed enrichment, recommendation results, the local API) goes through it.
package models
