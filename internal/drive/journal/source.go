// Package journal abstracts the volume change-journal primitive described in
// spec §4.3 and §9. FileDrive depends only on the Source interface, so a
// native NTFS USN journal and a portable mtime-polling scanner can both
// drive the same engine.
package journal

import "context"

// Reason is a bitmask describing what happened to a file, mirroring the USN
// journal's reason codes (spec §4.3's ReasonMask).
type Reason uint32

const (
	ReasonFileCreate     Reason = 0x00000100
	ReasonFileDelete     Reason = 0x00000200
	ReasonRenameNewName  Reason = 0x00002000
	ReasonDataOverwrite  Reason = 0x00000001
	ReasonDataExtend     Reason = 0x00000002
	ReasonDataTruncation Reason = 0x00000004
	ReasonClose          Reason = 0x80000000
)

// Interesting is every reason the engine acts on -- everything except a bare
// close, per spec §4.3 ("every record whose reason intersects the
// 'interesting' subset (everything except bare CLOSE)").
const Interesting = ReasonFileCreate | ReasonFileDelete | ReasonRenameNewName |
	ReasonDataOverwrite | ReasonDataExtend | ReasonDataTruncation

// Record is a single change-journal record, already decoded from whatever
// wire format the underlying source uses.
type Record struct {
	// FileRefHigh/FileRefLow identify the file the record describes.
	FileRefHigh uint64
	FileRefLow  uint64
	// USN is the sequence number of this record.
	USN int64
	// Reason is the bitmask of what happened.
	Reason Reason
	// IsDirectory reports whether the referenced file is a directory, when
	// the source can determine this cheaply from the record itself (the
	// native backend reads it off the record's file-attributes field; the
	// polling backend reads it from the cached directory-entry kind).
	IsDirectory bool
}

// Source is the abstraction FileDrive depends on for change-journal access.
// Implementations must be safe for use by a single caller at a time (the
// monitor thread); no concurrent-access guarantees are required beyond
// that.
type Source interface {
	// NextUSN returns the cursor that a subsequent Read call would start
	// from if called right now.
	NextUSN() int64

	// Read reads every available record starting at the source's current
	// cursor, invoking callback for each one, and returns the updated
	// cursor. It must not block: spec §4.3 requires Timeout=0,
	// BytesToWaitFor=0 polling semantics, and the portable fallback honors
	// the same contract by only examining state already on disk.
	//
	// On failure, the correct response (per spec §4.3) is a full re-scan,
	// since the journal may have been reset; Read signals this by
	// returning a non-nil error, in which case the returned cursor should
	// be ignored.
	Read(ctx context.Context, callback func(Record)) (int64, error)

	// PathForRef resolves a file reference number to its current full
	// path, as seen by the volume. It is used when a CREATE or RENAME
	// record is observed and the engine needs to know where the file now
	// lives.
	PathForRef(ctx context.Context, refHigh, refLow uint64) (string, error)

	// Close releases any resources (handles, watchers) held by the
	// source.
	Close() error
}
