// Package records keeps the best solutions per level.
//
// A Result is stored the first time a session wins a level. Store has two
// implementations: MemoryStore for tests and ephemeral servers, and SQLiteStore
// for a single-file database that survives restarts.
//
// Usage:
//
//	store, err := records.OpenSQLite("data/records.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	isBest, err := store.Record(ctx, records.NewResult("classic", 1, 3, "a1b2"))
package records
