// Package cooking defines the boundary between the filesystem engine and
// the (out-of-scope) rule/command layer that decides what to build and
// actually runs the build commands, per spec §6. Neither side of the
// boundary imports the other's implementation package: the engine is
// handed a System at construction, and the rule layer is handed an Index it
// can use to query and mutate the index.
package cooking

import "github.com/cookdaemon/cookd/internal/index"

// System is the set of callbacks the filesystem engine invokes as it
// observes files. It is implemented by the rule/command layer.
type System interface {
	// CreateCommandsForFile is called exactly once per FileID, the first
	// time the engine observes it, per spec §4.2's commands_created
	// latch. Re-observation after a tombstone-and-revive cycle does not
	// call it again.
	CreateCommandsForFile(file *index.FileInfo)

	// QueueUpdateDirtyState is called whenever a file's content or
	// existence may have changed, so the rule layer can re-evaluate
	// whatever commands depend on it.
	QueueUpdateDirtyState(id index.FileID)

	// ProcessUpdateDirtyStates is called periodically by the engine so
	// the rule layer can drain whatever QueueUpdateDirtyState has
	// accumulated in a batch, rather than processing one file at a time.
	ProcessUpdateDirtyStates()
}

// RepoHandle exposes the subset of a repo's identity the rule layer needs
// without requiring it to import the drive package.
type RepoHandle interface {
	Name() string
	RootPath() string
	Index() uint32
}

// Index is the set of read/write operations the rule layer can perform
// against the engine's index. It is implemented by the engine.
type Index interface {
	// GetFile resolves a FileID to its current record. The second
	// return value is false if the ID is unknown.
	GetFile(id index.FileID) (*index.FileInfo, bool)

	// GetRepo resolves a FileID to the repo handle that owns it.
	GetRepo(id index.FileID) (RepoHandle, bool)

	// FindRepo looks up a repo by its configured name.
	FindRepo(name string) (RepoHandle, bool)

	// CreateDirectory creates a directory on disk (and, transitively,
	// its FileInfo record) for a command output declared ahead of the
	// command actually running.
	CreateDirectory(id index.FileID) error

	// DeleteFile removes a file from disk, in preparation for a command
	// that is about to regenerate it.
	DeleteFile(id index.FileID) error
}
