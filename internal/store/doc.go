// Package store persists procedure descriptions and observations in SQLite
// or PostgreSQL through database/sql.
//
// # Tables
//
//   - procedures: raw description documents keyed by procedure identifier,
//     decoded through a dispatcher when read
//   - observations: one row per decoded observation, deduplicated by content
//     hash, with the columns filtersql compiles filters against
//
// # Determinism
//
// Query results are ordered by phenomenon time with the id as a byte-wise
// tiebreaker. Times are stored as fixed-width UTC text (filtersql.TimeLayout)
// so that text comparison is chronological in both databases.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - case_sensitive_like=ON: LIKE honours matchCase as in PostgreSQL
package store
