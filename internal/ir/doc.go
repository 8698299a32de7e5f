// Package ir provides the leaf domain model shared by every decoder.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value, Time and Geometry are sealed unions: only the types declared
//     here implement them
//   - Decoded values are immutable once returned
//   - All JSON tags use snake_case
//   - MarshalCanonical is the only serialisation used for content hashes
package ir
