package index

import "strings"

// NormalizeRelative normalizes a repo-relative path: single ('/') separator
// direction, no leading separator, no redundant separators, no trailing
// separator. The repo root itself normalizes to "".
func NormalizeRelative(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	path = strings.Trim(path, "/")
	return path
}

// Join joins a repo-relative directory path and a child name, normalizing
// the result.
func Join(dir, name string) string {
	if dir == "" {
		return NormalizeRelative(name)
	}
	return NormalizeRelative(dir + "/" + name)
}

// NameExtensionOffsets computes the byte offsets of a path's basename and
// extension, for the quick FileInfo.Name/Extension accessors.
func NameExtensionOffsets(path string) (namePos, extensionPos uint16) {
	slash := strings.LastIndexByte(path, '/')
	nameStart := 0
	if slash >= 0 {
		nameStart = slash + 1
	}
	name := path[nameStart:]

	// A leading dot (e.g. ".gitignore") is not treated as introducing an
	// extension, matching common basename/extension conventions.
	dot := strings.LastIndexByte(name[min(1, len(name)):], '.')
	extPos := 0
	if dot >= 0 {
		extPos = nameStart + min(1, len(name)) + dot
	}

	return uint16(nameStart), uint16(extPos)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
