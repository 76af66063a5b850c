package drive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cookdaemon/cookd/internal/cooking"
	"github.com/cookdaemon/cookd/internal/drive/journal"
	"github.com/cookdaemon/cookd/internal/index"
	"github.com/cookdaemon/cookd/internal/scan"
)

func newTestDrive(t *testing.T) (*FileDrive, *cooking.FakeSystem) {
	t.Helper()
	fake := cooking.NewFakeSystem()
	d := New("test", journal.NewPollSource(nil), fake, nil)
	return d, fake
}

func TestAddRepoRejectsDuplicateName(t *testing.T) {
	d, _ := newTestDrive(t)
	dir := t.TempDir()
	if _, err := d.AddRepo("repo", dir); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddRepo("repo", t.TempDir()); err == nil {
		t.Error("expected duplicate repo name to be rejected")
	}
}

func TestAddRepoRejectsOverlappingRoots(t *testing.T) {
	d, _ := newTestDrive(t)
	parent := t.TempDir()
	child := filepath.Join(parent, "child")
	if err := os.Mkdir(child, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := d.AddRepo("parent", parent); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddRepo("child", child); err == nil {
		t.Error("expected nested repo root to be rejected as overlapping")
	}
}

func TestGetOrAddFileFirstObservationCreatesCommands(t *testing.T) {
	d, fake := newTestDrive(t)
	repo, err := d.AddRepo("repo", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// AddRepo already observed the repo's root directory, which fired
	// CreateCommandsForFile once for the root's FileID.
	before := fake.CreatedCount()

	ref := index.FileRefNumber{High: 0, Low: 1}
	file, first, changed := repo.GetOrAddFile("a.txt", false, ref)
	if !first {
		t.Error("expected first observation to report true")
	}
	if !changed {
		t.Error("expected first observation to report changed")
	}
	if fake.CreatedCount() != before+1 {
		t.Errorf("CreatedCount() = %d, expected %d", fake.CreatedCount(), before+1)
	}
	if file.IsDirectory() {
		t.Error("file should not be marked as a directory")
	}

	// A second observation with the same path and ref must not re-fire
	// CreateCommandsForFile.
	_, second, _ := repo.GetOrAddFile("a.txt", false, ref)
	if second {
		t.Error("expected second observation to report first=false")
	}
	if fake.CreatedCount() != before+1 {
		t.Errorf("CreatedCount() = %d after repeat observation, expected still %d", fake.CreatedCount(), before+1)
	}
}

func TestGetOrAddFileTombstoneAndRevival(t *testing.T) {
	d, fake := newTestDrive(t)
	repo, err := d.AddRepo("repo", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// AddRepo already fired CreateCommandsForFile once for the root.
	before := fake.CreatedCount()

	ref := index.FileRefNumber{High: 0, Low: 5}
	file, _, _ := repo.GetOrAddFile("gone.txt", false, ref)

	repo.MarkFileDeleted(file, index.FileTimeFromTime(d.now()))
	if !file.IsDeleted() {
		t.Fatal("file should be marked deleted")
	}

	newRef := index.FileRefNumber{High: 0, Low: 6}
	revived, first, changed := repo.GetOrAddFile("gone.txt", false, newRef)
	if first {
		t.Error("revival should not report first observation")
	}
	if !changed {
		t.Error("revival should report changed")
	}
	if revived.IsDeleted() {
		t.Error("revived file should no longer be deleted")
	}
	// commandsCreated is a lifetime latch on the FileID, not a
	// per-incarnation one: a tombstone/revive cycle must not cause a
	// second CreateCommandsForFile call.
	if fake.CreatedCount() != before+1 {
		t.Errorf("CreatedCount() = %d, expected %d (revival must not re-fire CreateCommandsForFile)", fake.CreatedCount(), before+1)
	}
}

func TestScanDirectoryQueuesSubdirectories(t *testing.T) {
	d, _ := newTestDrive(t)
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "file.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	repo, err := d.AddRepo("repo", root)
	if err != nil {
		t.Fatal(err)
	}

	queue := scan.NewQueue()
	queued, err := repo.ScanDirectory(context.Background(), repo.RootFileID(), queue, false)
	if err != nil {
		t.Fatal(err)
	}
	if queued != 1 {
		t.Errorf("ScanDirectory queued %d subdirectories, expected 1", queued)
	}
	if queue.Len() != 1 {
		t.Errorf("queue.Len() = %d, expected 1", queue.Len())
	}

	if _, ok := d.FindFileID(filepath.Join(root, "file.txt")); !ok {
		t.Error("expected file.txt to be indexed after ScanDirectory")
	}
}

func TestScanFileUpdatesUSN(t *testing.T) {
	d, _ := newTestDrive(t)
	root := t.TempDir()
	path := filepath.Join(root, "file.txt")
	if err := os.WriteFile(path, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	repo, err := d.AddRepo("repo", root)
	if err != nil {
		t.Fatal(err)
	}

	ref := index.FileRefNumber{High: 0, Low: 1}
	file, _, _ := repo.GetOrAddFile("file.txt", false, ref)

	before := file.LastChangeUSN()
	if err := repo.ScanFile(file, ScanAll); err != nil {
		t.Fatal(err)
	}
	if file.LastChangeUSN() == before {
		t.Error("expected ScanFile to advance the synthetic USN")
	}
}

func TestScanFileMissingFileIsNotAnError(t *testing.T) {
	d, _ := newTestDrive(t)
	root := t.TempDir()
	repo, err := d.AddRepo("repo", root)
	if err != nil {
		t.Fatal(err)
	}

	ref := index.FileRefNumber{High: 0, Low: 1}
	file, _, _ := repo.GetOrAddFile("missing.txt", false, ref)
	if err := repo.ScanFile(file, ScanUSNOnly); err != nil {
		t.Errorf("ScanFile on a missing file should not return an error, got %v", err)
	}
}
