package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cookdaemon/cookd/internal/fatal"
	"github.com/cookdaemon/cookd/internal/index"
	"github.com/cookdaemon/cookd/internal/logging"
	"github.com/cookdaemon/cookd/internal/scan"
)

// ScanKind selects what ScanFile populates, mirroring spec §4.2's
// USNOnly/All distinction.
type ScanKind int

const (
	// ScanUSNOnly fetches only the file's current journal sequence number.
	ScanUSNOnly ScanKind = iota
	// ScanAll additionally refreshes creation/change times.
	ScanAll
)

// FileRepo is a named, rooted subtree under watch. It owns a contiguous,
// append-only collection of FileInfo records and performs directory
// enumeration, per spec §4.2.
type FileRepo struct {
	index    uint32
	name     string
	rootPath string // absolute, OS-native path, no trailing separator.
	drive    *FileDrive
	pool     *index.StringPool
	files    *index.Vector
	rootDir  index.FileID
	logger   *logging.Logger
}

// newFileRepo constructs a repo. It does not touch disk; FileDrive.AddRepo
// is responsible for ensuring the root directory exists.
func newFileRepo(repoIndex uint32, name, rootPath string, d *FileDrive, logger *logging.Logger) *FileRepo {
	repo := &FileRepo{
		index:    repoIndex,
		name:     name,
		rootPath: rootPath,
		drive:    d,
		pool:     index.NewStringPool(),
		files:    index.NewVector(),
		logger:   logger,
	}
	info, _, _ := repo.GetOrAddFile("", true, index.FileRefNumber{})
	repo.rootDir = info.ID()
	return repo
}

// Name returns the repo's configured name.
func (r *FileRepo) Name() string { return r.name }

// RootPath returns the repo's absolute root path.
func (r *FileRepo) RootPath() string { return r.rootPath }

// Index returns the repo's index within its drive's repo list.
func (r *FileRepo) Index() uint32 { return r.index }

// RootFileID returns the FileID of the repo's root directory.
func (r *FileRepo) RootFileID() index.FileID { return r.rootDir }

// Pool returns the repo's string pool, for resolving FileInfo paths.
func (r *FileRepo) Pool() *index.StringPool { return r.pool }

// File returns the FileInfo at the given index, or nil if out of range.
func (r *FileRepo) File(id index.FileID) *index.FileInfo {
	if id.RepoIndex != r.index {
		return nil
	}
	if int(id.FileIndex) >= r.files.Len() {
		return nil
	}
	return r.files.At(int(id.FileIndex))
}

// AbsolutePath returns the OS-native absolute path for a repo-relative
// path.
func (r *FileRepo) AbsolutePath(relative string) string {
	if relative == "" {
		return r.rootPath
	}
	return filepath.Join(r.rootPath, filepath.FromSlash(relative))
}

// GetOrAddFile implements spec §4.2's get_or_add_file. It returns the
// resolved FileInfo, whether this observation is the file's first-ever
// (GetOrAddFile itself calls CreateCommandsForFile at most once per
// FileID, so callers need not), and whether the
// caller should consider this a content/identity change worth a
// dirty-state notification (true for brand-new files and tombstone
// revivals).
func (r *FileRepo) GetOrAddFile(relative string, isDirectory bool, ref index.FileRefNumber) (file *index.FileInfo, firstObservation bool, changed bool) {
	relative = index.NormalizeRelative(relative)
	pathHash := index.HashPath(r.rootPath, relative)

	r.drive.mu.Lock()
	defer r.drive.mu.Unlock()

	id, exists := r.drive.filesByHash[pathHash]
	if !exists {
		fileIndex := r.files.Append()
		id = index.FileID{RepoIndex: r.index, FileIndex: uint32(fileIndex)}
		r.drive.filesByHash[pathHash] = id

		file = r.files.At(fileIndex)
		r.initFile(file, id, relative, pathHash, isDirectory)
		firstObservation = true
	} else {
		file = r.files.At(int(id.FileIndex))

		if file.IsDirectory() != isDirectory {
			fatal.Errorf(r.logger, "file type changed for %q: was directory=%v, now directory=%v", relative, file.IsDirectory(), isDirectory)
		}

		wasDeleted := file.IsDeleted()
		if ref.IsValid() && !wasDeleted && file.RefNumber() != ref {
			r.logger.Warn(fmt.Errorf("file %q changed reference number unexpectedly, possibly missed event", relative))
		}
		if ref.IsValid() && wasDeleted {
			changed = true
			file.Revive(ref, index.FileTimeFromTime(r.drive.now()))
			if r.drive.metrics != nil {
				r.drive.metrics.IncFilesRevived()
			}
		} else if ref.IsValid() {
			file.SetRefNumber(ref)
		}
	}

	if ref.IsValid() {
		if existingID, bound := r.drive.filesByRef[ref]; bound {
			existingRepo := r.drive.repoForID(existingID)
			var existingFile *index.FileInfo
			if existingRepo != nil {
				existingFile = existingRepo.File(existingID)
			}
			mismatch := existingID != id
			if !mismatch && existingFile != nil && existingFile.PathHash() != pathHash {
				mismatch = true
			}
			if mismatch {
				r.logger.Error(fmt.Errorf("stale reference-number binding for %q, tombstoning previous owner", relative))
				if existingFile != nil {
					r.drive.tombstoneLocked(existingFile, index.FileTimeFromTime(r.drive.now()))
				}
			}
		}
		r.drive.filesByRef[ref] = id
	}

	if (firstObservation || changed) && !file.CommandsCreated() {
		file.MarkCommandsCreated()
		if r.drive.metrics != nil {
			r.drive.metrics.IncCommandsCreated()
		}
		if r.drive.cooking != nil {
			r.drive.cooking.CreateCommandsForFile(file)
		}
	}

	return file, firstObservation, changed || firstObservation
}

// initFile populates a freshly allocated FileInfo record in place.
func (r *FileRepo) initFile(file *index.FileInfo, id index.FileID, relative string, pathHash index.Hash128, isDirectory bool) {
	namePos, extPos := index.NameExtensionOffsets(relative)
	file.SetID(id)
	file.SetPath(r.pool.Intern(relative), pathHash, namePos, extPos)
	file.SetDirectory(isDirectory)
	now := index.FileTimeFromTime(r.drive.now())
	file.SetTimes(now, index.ZeroFileTime)
}

// MarkFileDeleted implements spec §4.2's mark_file_deleted.
func (r *FileRepo) MarkFileDeleted(file *index.FileInfo, timestamp index.FileTime) {
	r.drive.mu.Lock()
	defer r.drive.mu.Unlock()
	r.drive.tombstoneLocked(file, timestamp)
}

// ScanDirectory implements spec §4.2's scan_directory. steadyState
// indicates whether this call happens during the steady-state loop
// (true) or the initial scan (false); only in the former case is each
// regular file's USN fetched immediately and a dirty-state update
// enqueued, per spec. It returns the number of subdirectories it pushed
// onto queue, so a worker pool can track outstanding work precisely.
func (r *FileRepo) ScanDirectory(ctx context.Context, dirID index.FileID, queue *scan.Queue, steadyState bool) (int, error) {
	dir := r.File(dirID)
	if dir == nil {
		return 0, fmt.Errorf("drive: unknown directory FileID %v", dirID)
	}

	absPath := r.AbsolutePath(dir.Path(r.pool))
	entries, err := os.ReadDir(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		r.drive.rescanHook(dirID)
		return 0, nil
	}

	queued := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return queued, ctx.Err()
		}
		name := entry.Name()
		relative := index.Join(dir.Path(r.pool), name)

		info, err := entry.Info()
		if err != nil {
			continue
		}

		ref := r.drive.refForPath(r.AbsolutePath(relative))
		child, _, _ := r.GetOrAddFile(relative, entry.IsDir(), ref)
		if entry.IsDir() {
			queue.Push(child.ID())
			queued++
			continue
		}

		child.SetTimes(child.CreationTime(), index.FileTimeFromTime(info.ModTime()))

		if steadyState {
			if err := r.ScanFile(child, ScanUSNOnly); err == nil && r.drive.cooking != nil {
				r.drive.cooking.QueueUpdateDirtyState(child.ID())
			}
		}
	}

	return queued, nil
}

// ScanFile implements spec §4.2's scan_file.
func (r *FileRepo) ScanFile(file *index.FileInfo, requested ScanKind) error {
	absPath := r.AbsolutePath(file.Path(r.pool))
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		if isTransientOpenError(err) {
			r.drive.rescanHook(file.ID())
			return err
		}
		fatal.Errorf(r.logger, "unexpected failure opening %q: %v", absPath, err)
		return err
	}

	file.SetLastChangeUSN(r.drive.nextSyntheticUSN())
	if requested == ScanAll {
		file.SetTimes(file.CreationTime(), index.FileTimeFromTime(info.ModTime()))
	}
	return nil
}
