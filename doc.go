// Package sticky is the Composition Root for the sticky-note board.
//
// It connects the core note logic (validation, layout, the editing
// controller) with a backing cache using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// A board is a handful of short notes pinned to a grid. The notes live in a
// key/value cache the user may wipe at any time, so the engine treats
// the cache as unreliable: reads of missing or corrupt entries degrade to
// "no note", while writes report quota and availability problems.
//
// Features:
//
//   - **Hexagonal Architecture**: Core domain is isolated from persistence details.
//   - **Pluggable Backends**: memory, files, SQLite and Redis via `core.Cache`.
//   - **Deterministic Layout**: New notes take the first free grid cell.
//   - **Single Pending Note**: At most one note is being edited at a time.
//   - **Watchable**: File and Redis backends report changes made by other processes.
//
// Usage:
//
//	board, err := sticky.New(ctx,
//		sticky.WithStore("sqlite:///var/lib/sticky/board.db"),
//		sticky.WithLogger(logger),
//	)
//	defer board.Close()
//
//	n, err := board.Controller.Create(ctx, nil)
//	err = board.Controller.Save(ctx, n.ID, "Call the plumber")
package sticky
