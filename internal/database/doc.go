// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, table counts
//	├── errors.go        # Constraint classification
//	├── moves/           # Moves, move tags and their links
//	├── combos/          # Saved combos (ordered move-name sequences)
//	├── battle/          # Battle combos, battle tags and their links
//	├── goals/           # Goals and their ordered stages
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./cypher.db")
//
//	movesRepo := moves.NewRepository(db.DB, db.Changes)
//	goalsRepo := goals.NewRepository(db.DB, db.Changes)
//
//	move, err := movesRepo.CreateMove(ctx, "flare")
//	goal, err := goalsRepo.GetGoal(ctx, id)
//
// # Referential Integrity
//
// Foreign keys are enforced on every connection. Deleting a move, tag,
// battle combo, battle tag or goal removes the dependent links or stages in
// the same statement. Inserting a link or stage whose parent does not exist
// fails with ErrConstraintViolation. Saved combos hold move names, not move
// ids, and are untouched by move renames and deletes.
//
// # Change Notification
//
// Repositories publish the tables they touched to Database.Changes after a
// write commits. Observe* methods stream fresh query results on each publish.
package database
