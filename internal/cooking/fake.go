package cooking

import (
	"sync"

	"github.com/cookdaemon/cookd/internal/index"
)

// FakeSystem is a recording System double, exported so the drive and
// engine packages' test suites can exercise the engine against it without
// each reimplementing the boundary interface.
type FakeSystem struct {
	mu sync.Mutex

	Created []index.FileID
	Dirtied []index.FileID
	Batches int
}

// NewFakeSystem creates an empty FakeSystem.
func NewFakeSystem() *FakeSystem {
	return &FakeSystem{}
}

func (s *FakeSystem) CreateCommandsForFile(file *index.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Created = append(s.Created, file.ID())
}

func (s *FakeSystem) QueueUpdateDirtyState(id index.FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dirtied = append(s.Dirtied, id)
}

func (s *FakeSystem) ProcessUpdateDirtyStates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Batches++
}

// CreatedCount returns how many times CreateCommandsForFile has fired.
func (s *FakeSystem) CreatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Created)
}

// DirtiedCount returns how many times QueueUpdateDirtyState has fired.
func (s *FakeSystem) DirtiedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Dirtied)
}
