// Package persistence stores the current preference snapshot per user id.
//
// Backends:
//   - Memory: development and tests (default)
//   - Mongo: the collection user_contexts, one document per user
//   - Redis: one JSON value per user, shared cache.Manager connection
//   - SQL: table user_contexts via GORM (postgres, mysql, sqlite)
//
// Every backend returns an empty record from Get when the user is unknown,
// and Put upserts: CreatedAt is set once on insert, UpdatedAt on every write.
// Stores never retry; failures surface to the caller.
package persistence
