package index

import "testing"

func TestFileIDValidity(t *testing.T) {
	if InvalidFileID.IsValid() {
		t.Error("InvalidFileID reports as valid")
	}
	id := FileID{RepoIndex: 0, FileIndex: 0}
	if !id.IsValid() {
		t.Error("zero FileID should be valid (it's a legitimate root directory ID)")
	}
	if !id.IsRoot() {
		t.Error("FileID with FileIndex 0 should report as root")
	}
}

func TestFileRefNumberValidity(t *testing.T) {
	if InvalidFileRefNumber.IsValid() {
		t.Error("InvalidFileRefNumber reports as valid")
	}
	ref := FileRefNumber{High: 1, Low: 1}
	if !ref.IsValid() {
		t.Error("non-zero FileRefNumber should be valid")
	}
}
