// Package repositories implements SQLite persistence on a single key/value table.
//
// Key Implementations:
//   - [KVStore] : raw string values addressed by key, with upserts and deletes
//   - [HistoryRepository] : the append-only session history stored as one JSON array under [HistoryKey]
//
// History is read-tolerant. A missing key or a value that no longer decodes is treated as an
// empty history and logged, never returned as an error. Write failures are returned wrapped in
// [shared.ErrStorage] so callers can log them and keep going.
package repositories
