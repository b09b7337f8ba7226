// Package engine provides the core puzzle logic for the Sokoban game.
//
// The engine package implements the game mechanics including:
//   - Level parsing from the textual map format
//   - Spatial queries over walls and goals
//   - Hero movement and crate pushing with all-or-nothing legality checks
//   - The undo history that reverses a step or a push as one action
//   - Level progression over a catalog of level texts
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds one loaded level (grid, hero,
// crates, history, step counter). Snapshot is the read-only view handed to
// presentation layers.
//
// Usage:
//
//	catalog := engine.StaticCatalog{"#####\n#@$.#\n#####"}
//
//	gameEngine, err := engine.NewEngine(catalog, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome := gameEngine.Move("right") // engine.MovedWithPush
//	if gameEngine.IsVictory() && gameEngine.HasMoreLevels() {
//		gameEngine.TryAdvance()
//	}
//
// Level Format:
//
//	#  wall        @  hero        $  crate
//	.  goal        +  hero on goal   *  crate on goal
//
// Rows are separated by newlines and trailing whitespace is ignored. Every
// other character leaves its cell empty.
//
// Game Rules:
//
// The hero moves one cell in a cardinal direction. Walking into a crate pushes
// it one cell further unless a wall or another crate is behind it. The level is
// won when every crate rests on a goal; afterwards only advancing to the next
// level is accepted. The engine is single-threaded: callers serialize access.
package engine
