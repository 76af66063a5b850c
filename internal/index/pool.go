package index

// StringPool is an arena for immutable path strings. FileInfo records store
// a StringView into a pool rather than owning their own string headers, so
// that path storage for an entire repo lives in a small number of large
// allocations instead of one allocation per file.
//
// A pool is owned by a single FileRepo and is only ever appended to; it is
// guarded by the same mutex that guards the owning drive's maps and file
// vector (see FileDrive.mu), so no separate locking is needed here.
type StringPool struct {
	data []byte
}

// StringView is a reference into a StringPool's backing storage.
type StringView struct {
	offset int
	length int
}

// NewStringPool creates an empty string pool with a small initial capacity.
func NewStringPool() *StringPool {
	return &StringPool{data: make([]byte, 0, 4096)}
}

// Intern appends s to the pool and returns a view of it. The pool never
// reuses or deduplicates storage; callers that care about deduplication
// (none currently do) would need to do so themselves.
func (p *StringPool) Intern(s string) StringView {
	offset := len(p.data)
	p.data = append(p.data, s...)
	return StringView{offset: offset, length: len(s)}
}

// Get resolves a StringView back into a string.
func (p *StringPool) Get(v StringView) string {
	if v.length == 0 {
		return ""
	}
	return string(p.data[v.offset : v.offset+v.length])
}
