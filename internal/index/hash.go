package index

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Hash128 is a 128-bit case-insensitive hash of an absolute path. Collisions
// are assumed impossible: two paths that hash equal are treated as the same
// path.
type Hash128 struct {
	High uint64
	Low  uint64
}

// Zero reports whether h is the zero hash. This is only used to guard
// against accidentally treating an unset Hash128 as a real path hash.
func (h Hash128) Zero() bool {
	return h.High == 0 && h.Low == 0
}

// normalizeSeparators collapses duplicate path separators and canonicalizes
// on '/', mirroring the normalization mutagen's filesystem package performs
// before comparing or hashing paths.
func normalizeSeparators(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return strings.TrimSuffix(path, "/")
}

// foldCase uppercases a path under a simple invariant-locale case fold. This
// does not special-case locale exemptions (e.g. the Turkish dotless-I
// behavior NTFS itself avoids).
func foldCase(path string) string {
	return strings.Map(unicode.ToUpper, path)
}

// HashPath computes a stable, case-insensitive 128-bit identifier for the
// absolute path formed by joining root and relative. It is the Go
// realization of the specification's PathHasher component (§4.1).
//
// Encoding failures are not possible here since Go strings are assumed to
// carry valid UTF-8 by contract with callers; a caller that passes raw,
// unvalidated bytes violates that contract and should fail fatally upstream
// (see internal/fatal), not here.
func HashPath(root, relative string) Hash128 {
	joined := root
	if relative != "" {
		if !strings.HasSuffix(joined, "/") && !strings.HasSuffix(joined, "\\") {
			joined += "/"
		}
		joined += relative
	}
	normalized := foldCase(normalizeSeparators(joined))

	// Build a 128-bit digest from two independent 64-bit xxhash digests
	// (one over the string as given, one over the string with a salt
	// appended) rather than pulling in a second hashing library solely for
	// a true single-pass 128-bit XXH3 implementation. See DESIGN.md.
	high := xxhash.Sum64String(normalized)
	low := xxhash.Sum64String(normalized + "\x00cookd-salt")

	return Hash128{High: high, Low: low}
}
