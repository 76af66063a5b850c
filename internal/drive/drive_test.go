package drive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cookdaemon/cookd/internal/cooking"
	"github.com/cookdaemon/cookd/internal/drive/journal"
	"github.com/cookdaemon/cookd/internal/index"
)

func TestProcessMonitorDirectoryIndexesNewFile(t *testing.T) {
	root := t.TempDir()
	source := journal.NewPollSource([]string{root})
	fake := cooking.NewFakeSystem()
	d := New("test", source, fake, nil)

	if _, err := d.AddRepo("repo", root); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, "new.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := d.ProcessMonitorDirectory(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.FindFileID(path); !ok {
		t.Error("expected the new file to be indexed after a journal record is processed")
	}
	if fake.CreatedCount() == 0 {
		t.Error("expected CreateCommandsForFile to fire for the newly observed file")
	}
}

func TestProcessMonitorDirectoryTombstonesDeletedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	source := journal.NewPollSource([]string{root})
	fake := cooking.NewFakeSystem()
	d := New("test", source, fake, nil)

	if _, err := d.AddRepo("repo", root); err != nil {
		t.Fatal(err)
	}

	// Prime the poll source's baseline so the delete is detected as a
	// change relative to a known-good snapshot.
	if err := d.ProcessMonitorDirectory(context.Background()); err != nil {
		t.Fatal(err)
	}
	id, ok := d.FindFileID(path)
	if !ok {
		t.Fatal("expected the file to be indexed before deletion")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := d.ProcessMonitorDirectory(context.Background()); err != nil {
		t.Fatal(err)
	}

	file, ok := d.File(id)
	if !ok {
		t.Fatal("expected the file record to still exist after deletion")
	}
	if !file.IsDeleted() {
		t.Error("expected the file to be tombstoned after its journal delete record is processed")
	}
}

// fakeRenameSource is a minimal journal.Source whose PathForRef is fully
// test-controlled, used to drive handleRecord with records that PollSource
// itself never produces (it diffs renames as delete+create under distinct
// refs, rather than reusing one ref the way the native NTFS backend does).
type fakeRenameSource struct {
	paths map[uint64]string
}

func (f *fakeRenameSource) NextUSN() int64 { return 0 }

func (f *fakeRenameSource) Read(ctx context.Context, callback func(journal.Record)) (int64, error) {
	return 0, nil
}

func (f *fakeRenameSource) PathForRef(ctx context.Context, refHigh, refLow uint64) (string, error) {
	if path, ok := f.paths[refLow]; ok {
		return path, nil
	}
	return "", os.ErrNotExist
}

func (f *fakeRenameSource) Close() error { return nil }

func TestHandleRecordRenameTombstonesOldAndCreatesNew(t *testing.T) {
	root := t.TempDir()
	source := &fakeRenameSource{paths: map[uint64]string{1: filepath.Join(root, "a.txt")}}
	fake := cooking.NewFakeSystem()
	d := New("test", source, fake, nil)

	if _, err := d.AddRepo("repo", root); err != nil {
		t.Fatal(err)
	}

	ref := index.FileRefNumber{High: 0, Low: 1}
	d.handleRecord(context.Background(), journal.Record{
		FileRefHigh: ref.High,
		FileRefLow:  ref.Low,
		Reason:      journal.ReasonFileCreate,
	})

	oldID, ok := d.FindFileID(filepath.Join(root, "a.txt"))
	if !ok {
		t.Fatal("expected a.txt to be indexed after the create record")
	}

	// The rename keeps the same reference number, as the native NTFS
	// backend does, but now resolves to the new path.
	source.paths[1] = filepath.Join(root, "b.txt")
	d.handleRecord(context.Background(), journal.Record{
		FileRefHigh: ref.High,
		FileRefLow:  ref.Low,
		Reason:      journal.ReasonRenameNewName,
	})

	oldFile, ok := d.File(oldID)
	if !ok || !oldFile.IsDeleted() {
		t.Error("expected the FileID for a.txt to be tombstoned after the rename")
	}
	newID, ok := d.FindFileID(filepath.Join(root, "b.txt"))
	if !ok {
		t.Fatal("expected b.txt to be indexed after the rename")
	}
	if newID == oldID {
		t.Error("expected the rename to produce a new FileID for b.txt, not reuse a.txt's")
	}
}

func TestTombstoneDirectoryCascadesToChildren(t *testing.T) {
	d, _ := newTestDrive(t)
	repo, err := d.AddRepo("repo", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	dirRef := index.FileRefNumber{High: 0, Low: 1}
	dir, _, _ := repo.GetOrAddFile("sub", true, dirRef)

	childRef := index.FileRefNumber{High: 0, Low: 2}
	child, _, _ := repo.GetOrAddFile("sub/child.txt", false, childRef)

	nestedRef := index.FileRefNumber{High: 0, Low: 3}
	nested, _, _ := repo.GetOrAddFile("sub/nested/deep.txt", false, nestedRef)

	siblingRef := index.FileRefNumber{High: 0, Low: 4}
	sibling, _, _ := repo.GetOrAddFile("sub2/file.txt", false, siblingRef)

	repo.MarkFileDeleted(dir, index.FileTimeFromTime(d.now()))

	if !child.IsDeleted() {
		t.Error("expected a direct child of the deleted directory to be tombstoned")
	}
	if !nested.IsDeleted() {
		t.Error("expected a grandchild of the deleted directory to be tombstoned")
	}
	if sibling.IsDeleted() {
		t.Error("a file under a similarly-named but distinct directory must not be tombstoned")
	}
}

func TestRescanLaterAndDrainRescans(t *testing.T) {
	d, _ := newTestDrive(t)
	repo, err := d.AddRepo("repo", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	file, _, _ := repo.GetOrAddFile("a.txt", false, index.FileRefNumber{High: 0, Low: 1})
	d.RescanLater(file.ID())

	if d.RescanQueueLen() != 1 {
		t.Errorf("RescanQueueLen() = %d, expected 1", d.RescanQueueLen())
	}

	// The rescan delay has not elapsed yet, so nothing is drained and the
	// entry stays queued.
	if drained := d.DrainRescans(); len(drained) != 0 {
		t.Errorf("DrainRescans() = %v before the rescan delay elapsed, expected none", drained)
	}
	if d.RescanQueueLen() != 1 {
		t.Errorf("RescanQueueLen() = %d after an early DrainRescans, expected 1", d.RescanQueueLen())
	}
}
