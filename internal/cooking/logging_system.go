package cooking

import (
	"github.com/cookdaemon/cookd/internal/index"
	"github.com/cookdaemon/cookd/internal/logging"
)

// LoggingSystem is a minimal System that logs every callback instead of
// driving a real command executor. The executor and rule/command
// definition layers are external collaborators outside this engine's
// scope; LoggingSystem lets the engine run standalone (in the CLI's `run`
// command, and in tests) without one.
type LoggingSystem struct {
	logger *logging.Logger
}

// NewLoggingSystem creates a LoggingSystem that logs through logger.
func NewLoggingSystem(logger *logging.Logger) *LoggingSystem {
	return &LoggingSystem{logger: logger}
}

// CreateCommandsForFile implements System.
func (s *LoggingSystem) CreateCommandsForFile(file *index.FileInfo) {
	s.logger.Debugf("create-commands-for-file: id=%v", file.ID())
}

// QueueUpdateDirtyState implements System.
func (s *LoggingSystem) QueueUpdateDirtyState(id index.FileID) {
	s.logger.Debugf("queue-update-dirty-state: id=%v", id)
}

// ProcessUpdateDirtyStates implements System.
func (s *LoggingSystem) ProcessUpdateDirtyStates() {
}
