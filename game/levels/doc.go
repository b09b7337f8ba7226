// Package levels provides level pack management for the Sokoban server.
//
// The levels package handles:
//   - Loading level packs from YAML files
//   - The embedded classic pack, always available
//   - Pack validation before a pack is served
//   - Hot reload of the levels directory
//
// Pack Format:
//
//	name: Classic
//	description: Five short warm-up levels.
//	levels:
//	  - title: First Push
//	    map: |
//	      #####
//	      #@$.#
//	      #####
//
// Level numbers are 1-based. A Pack is an engine.Catalog, so it can be handed
// straight to engine.NewEngine.
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pack, err := manager.LoadPack("classic")
//	gameEngine, err := engine.NewEngine(pack, 1)
//
// Validation:
//
// Every level must parse (exactly one hero) and must not hold more crates than
// goals. A level without crates is accepted and reported with a note.
package levels
