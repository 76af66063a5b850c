package drive

// Metrics is the small subset of internal/metrics.Registry that the drive
// package needs, expressed as an interface so this package doesn't import
// prometheus directly. A nil Metrics is valid and simply records nothing.
type Metrics interface {
	IncJournalRecordsRead()
	IncFilesTombstoned()
	IncFilesRevived()
	IncCommandsCreated()
}

// SetMetrics attaches a metrics sink. It is optional; a FileDrive with no
// sink attached behaves identically, just without counters incrementing.
func (d *FileDrive) SetMetrics(m Metrics) {
	d.metrics = m
}
