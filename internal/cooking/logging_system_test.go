package cooking

import (
	"testing"

	"github.com/cookdaemon/cookd/internal/index"
)

func TestLoggingSystemDoesNotPanic(t *testing.T) {
	system := NewLoggingSystem(nil)

	pool := index.NewStringPool()
	vector := index.NewVector()
	vector.Append()
	file := vector.At(0)
	file.SetID(index.FileID{RepoIndex: 0, FileIndex: 0})
	file.SetPath(pool.Intern("a.txt"), index.HashPath("/root", "a.txt"), 0, 0)

	system.CreateCommandsForFile(file)
	system.QueueUpdateDirtyState(file.ID())
	system.ProcessUpdateDirtyStates()
}
