package index

import "sync/atomic"

// segmentSize is the number of FileInfo records held in each fixed-size
// segment of a Vector. Once allocated, a segment's backing array is never
// reallocated or moved, which is what makes indices into a Vector stable
// and lock-free to read once published (spec §9, "append-only file
// vector").
const segmentSize = 1024

// Vector is a pointer-stable, append-only collection of FileInfo records.
// Appends must be externally synchronized (FileDrive serializes them under
// its files mutex, per spec §5); reads by index require no synchronization
// at all once the index has been observed, because:
//
//   - a segment, once allocated, is never resized or moved, so a *FileInfo
//     obtained from it stays valid forever; and
//   - the top-level table of segment pointers is published via an atomic
//     pointer swap, so a reader that loads the table sees a consistent
//     snapshot even if a writer is concurrently appending a new segment.
type Vector struct {
	table atomic.Pointer[[]*[segmentSize]FileInfo]
	// length is only ever mutated by the single appending goroutine-at-a-
	// time (guarded externally), but is read atomically so that concurrent
	// readers can learn how many entries have been published.
	length atomic.Uint32
}

// NewVector creates an empty Vector.
func NewVector() *Vector {
	v := &Vector{}
	empty := make([]*[segmentSize]FileInfo, 0)
	v.table.Store(&empty)
	return v
}

// Len returns the number of published entries.
func (v *Vector) Len() int {
	return int(v.length.Load())
}

// At returns a pointer to the FileInfo at the given index. The caller must
// ensure index < Len(); At panics otherwise, since an out-of-range index
// indicates a FileID that was never legitimately allocated (a programming
// error, not a runtime condition to recover from).
func (v *Vector) At(index int) *FileInfo {
	if index < 0 || uint32(index) >= v.length.Load() {
		panic("index: file vector index out of range")
	}
	segmentIndex := index / segmentSize
	offset := index % segmentSize
	table := *v.table.Load()
	return &table[segmentIndex][offset]
}

// Append adds a new zero-valued FileInfo to the vector and returns its
// index. The caller must hold the owning drive's files mutex.
func (v *Vector) Append() int {
	index := int(v.length.Load())
	segmentIndex := index / segmentSize
	offset := index % segmentSize

	table := *v.table.Load()
	if segmentIndex >= len(table) {
		// Grow the segment table. Copy-on-write: build a new table slice
		// with the additional segment and atomically publish it, so that
		// concurrent lock-free readers never observe a half-grown table.
		grown := make([]*[segmentSize]FileInfo, len(table), len(table)+1)
		copy(grown, table)
		grown = append(grown, &[segmentSize]FileInfo{})
		v.table.Store(&grown)
		table = grown
	}

	_ = offset
	v.length.Add(1)
	return index
}
