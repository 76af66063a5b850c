package index

import "time"

// filetimeEpochOffset is the number of 100ns ticks between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01). FileTime
// reuses the Windows tick convention (rather than, say, Unix nanoseconds) so
// that values round-trip cleanly through both the native NTFS journal
// backend and the portable polling backend without a conversion at the
// boundary between them.
const filetimeEpochOffset = 116444736000000000

// FileTime is a 64-bit tick count since a fixed epoch, following the
// Windows FILETIME convention (100ns ticks since 1601-01-01 UTC).
type FileTime int64

// ZeroFileTime is the zero value of FileTime, representing "unknown" or "never".
const ZeroFileTime FileTime = 0

// FileTimeFromTime converts a time.Time to a FileTime.
func FileTimeFromTime(t time.Time) FileTime {
	return FileTime(t.UnixNano()/100 + filetimeEpochOffset)
}

// Time converts a FileTime back to a time.Time.
func (t FileTime) Time() time.Time {
	return time.Unix(0, (int64(t)-filetimeEpochOffset)*100).UTC()
}

// CommandID identifies a cooking command instantiated by the external rule
// layer. The engine treats it as an opaque value that it stores and hands
// back; it never interprets or allocates CommandIDs itself.
type CommandID uint64

// FileInfo is the per-file record maintained by the index. See spec §3 for
// the full field-by-field description; this type mirrors it directly.
type FileInfo struct {
	// id is immutable after creation.
	id FileID

	// path is the repo-relative, normalized path, stored in the owning
	// repo's string pool.
	path StringView
	// pathHash is the hash of the absolute path (root + path).
	pathHash Hash128
	// namePos and extensionPos are byte offsets into the resolved path
	// string for quick basename/extension queries.
	namePos      uint16
	extensionPos uint16

	// refNumber is invalid when the file is deleted.
	refNumber FileRefNumber
	// isDirectory is immutable after first observation; see FileRepo for
	// the fatal-error enforcement of this invariant.
	isDirectory bool

	// creationTime doubles as the deletion timestamp while the file is
	// tombstoned (ref_number invalid), matching the lifecycle described in
	// spec §3.
	creationTime   FileTime
	lastChangeTime FileTime
	// lastChangeUSN is the sequence number from the change journal; 0
	// means unknown. SetLastChangeUSN stores whatever value it is given,
	// and Revive resets it to 0.
	lastChangeUSN int64

	// commandsCreated latches once CreateCommandsForFile has been called
	// for this FileID.
	commandsCreated bool

	// inputOf and outputOf are dependency backlinks maintained by the
	// external cooking system but stored here for locality.
	inputOf  []CommandID
	outputOf []CommandID
}

// ID returns the file's stable identifier.
func (f *FileInfo) ID() FileID { return f.id }

// PathHash returns the file's absolute-path hash.
func (f *FileInfo) PathHash() Hash128 { return f.pathHash }

// RefNumber returns the file's current reference number. An invalid
// reference number means the file is currently deleted.
func (f *FileInfo) RefNumber() FileRefNumber { return f.refNumber }

// IsDeleted reports whether the file is currently tombstoned.
func (f *FileInfo) IsDeleted() bool { return !f.refNumber.IsValid() }

// IsDirectory reports whether the file is a directory. This never changes
// once the record is created.
func (f *FileInfo) IsDirectory() bool { return f.isDirectory }

// CreationTime returns the file's creation time, or (while deleted) the
// deletion time, per the tombstone-and-revive lifecycle in spec §3.
func (f *FileInfo) CreationTime() FileTime { return f.creationTime }

// LastChangeTime returns the time of the last recorded change.
func (f *FileInfo) LastChangeTime() FileTime { return f.lastChangeTime }

// LastChangeUSN returns the journal sequence number of the last recorded
// change, or 0 if unknown.
func (f *FileInfo) LastChangeUSN() int64 { return f.lastChangeUSN }

// CommandsCreated reports whether CreateCommandsForFile has already fired
// for this file.
func (f *FileInfo) CommandsCreated() bool { return f.commandsCreated }

// MarkCommandsCreated latches the commands-created flag. It is idempotent.
func (f *FileInfo) MarkCommandsCreated() { f.commandsCreated = true }

// SetID assigns the file's identifier. Callers must only do this once, at
// allocation time.
func (f *FileInfo) SetID(id FileID) { f.id = id }

// SetPath assigns the file's path view, absolute-path hash, and cached
// name/extension offsets. Callers must only do this once, at allocation
// time -- the path a FileInfo resolves to is immutable thereafter.
func (f *FileInfo) SetPath(path StringView, hash Hash128, namePos, extensionPos uint16) {
	f.path = path
	f.pathHash = hash
	f.namePos = namePos
	f.extensionPos = extensionPos
}

// SetDirectory assigns whether the file is a directory. Callers must only
// do this once, at allocation time.
func (f *FileInfo) SetDirectory(isDirectory bool) { f.isDirectory = isDirectory }

// SetTimes updates the creation and last-change timestamps.
func (f *FileInfo) SetTimes(creation, lastChange FileTime) {
	f.creationTime = creation
	f.lastChangeTime = lastChange
}

// SetLastChangeUSN records the journal sequence number of the most recent
// observed change.
func (f *FileInfo) SetLastChangeUSN(usn int64) { f.lastChangeUSN = usn }

// SetRefNumber rebinds the file's reference number, for the case where an
// existing record is observed again with a reference number it didn't
// previously have (or a changed one).
func (f *FileInfo) SetRefNumber(ref FileRefNumber) { f.refNumber = ref }

// Tombstone invalidates the file's reference number and records the
// deletion timestamp in creationTime, per the tombstone-and-revive
// lifecycle in spec §3.
func (f *FileInfo) Tombstone(timestamp FileTime) {
	f.refNumber = FileRefNumber{}
	f.creationTime = timestamp
}

// Revive re-materializes a tombstoned file under the same FileID: it
// rebinds the reference number, resets the creation/change timestamps to
// the revival time, and clears the journal cursor. commandsCreated is
// left untouched: it is a lifetime latch on the FileID, not a
// per-incarnation one, so the rule layer still receives exactly one
// "file added" notification across any number of tombstone/revive
// cycles.
func (f *FileInfo) Revive(ref FileRefNumber, timestamp FileTime) {
	f.refNumber = ref
	f.creationTime = timestamp
	f.lastChangeTime = timestamp
	f.lastChangeUSN = 0
}

// InputOf returns the commands for which this file is a tracked input.
func (f *FileInfo) InputOf() []CommandID { return f.inputOf }

// OutputOf returns the commands for which this file is a tracked output.
func (f *FileInfo) OutputOf() []CommandID { return f.outputOf }

// AddInputOf records that this file is an input of the given command,
// unless it is already recorded.
func (f *FileInfo) AddInputOf(id CommandID) {
	for _, existing := range f.inputOf {
		if existing == id {
			return
		}
	}
	f.inputOf = append(f.inputOf, id)
}

// AddOutputOf records that this file is an output of the given command,
// unless it is already recorded.
func (f *FileInfo) AddOutputOf(id CommandID) {
	for _, existing := range f.outputOf {
		if existing == id {
			return
		}
	}
	f.outputOf = append(f.outputOf, id)
}

// Path resolves the file's repo-relative path using the given pool.
func (f *FileInfo) Path(pool *StringPool) string {
	return pool.Get(f.path)
}

// Name returns the file's basename, using the name offset recorded at
// creation time.
func (f *FileInfo) Name(pool *StringPool) string {
	path := f.Path(pool)
	if int(f.namePos) > len(path) {
		return path
	}
	return path[f.namePos:]
}

// Extension returns the file's extension (including the leading '.'), or
// the empty string if it has none.
func (f *FileInfo) Extension(pool *StringPool) string {
	path := f.Path(pool)
	if f.extensionPos == 0 || int(f.extensionPos) > len(path) {
		return ""
	}
	return path[f.extensionPos:]
}
