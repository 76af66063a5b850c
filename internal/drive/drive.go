// Package drive implements spec §4.2 and §4.3: FileRepo (a named, rooted
// subtree of files) and FileDrive (the per-volume index and change-journal
// consumer that owns one or more repos). Grounded on the single-lock,
// plain-map style of the teacher's own tracker (see DESIGN.md); the
// journal itself is abstracted behind the journal.Source interface so the
// same drive logic runs against either a native NTFS backend or the
// portable polling fallback.
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cookdaemon/cookd/internal/cooking"
	"github.com/cookdaemon/cookd/internal/drive/journal"
	"github.com/cookdaemon/cookd/internal/index"
	"github.com/cookdaemon/cookd/internal/logging"
	"github.com/cookdaemon/cookd/internal/rescan"
)

// FileDrive is the per-volume engine state: the journal source, the
// dual-map index (by path hash and by reference number) shared across all
// of the volume's repos, and the single mutex that guards both maps per
// spec §5.
type FileDrive struct {
	label  string
	source journal.Source
	cooking cooking.System
	logger *logging.Logger
	rescan *rescan.Queue
	metrics Metrics

	mu          sync.Mutex
	filesByHash map[index.Hash128]index.FileID
	filesByRef  map[index.FileRefNumber]index.FileID
	repos       []*FileRepo
	reposByName map[string]*FileRepo
	reposMu     sync.Mutex

	usnCounter atomic.Int64

	synthMu      sync.Mutex
	synthRefs    map[string]index.FileRefNumber
	nextSynthRef uint64

	nowFn func() time.Time
}

// New constructs a FileDrive backed by the given journal source. label is
// a human-readable identifier for logging (a drive letter on Windows, or
// an arbitrary name for the portable backend).
func New(label string, source journal.Source, cookingSystem cooking.System, logger *logging.Logger) *FileDrive {
	return &FileDrive{
		label:       label,
		source:      source,
		cooking:     cookingSystem,
		logger:      logger,
		rescan:      rescan.NewQueue(),
		filesByHash: make(map[index.Hash128]index.FileID),
		filesByRef:  make(map[index.FileRefNumber]index.FileID),
		reposByName: make(map[string]*FileRepo),
		synthRefs:   make(map[string]index.FileRefNumber),
		nowFn:       time.Now,
	}
}

func (d *FileDrive) now() time.Time { return d.nowFn() }

// nextSyntheticUSN hands out a drive-scoped, monotonically increasing
// sequence number for bookkeeping performed outside of journal records
// (e.g. the USN stamp ScanFile records during a plain directory scan).
func (d *FileDrive) nextSyntheticUSN() int64 {
	return d.usnCounter.Add(1)
}

// refForPath returns a stable synthetic reference number for an absolute
// path, allocating one on first use. It exists because os.ReadDir does
// not surface a platform file-reference number the way a native NTFS
// directory enumeration would; see DESIGN.md.
func (d *FileDrive) refForPath(absPath string) index.FileRefNumber {
	d.synthMu.Lock()
	defer d.synthMu.Unlock()
	if ref, ok := d.synthRefs[absPath]; ok {
		return ref
	}
	d.nextSynthRef++
	ref := index.FileRefNumber{High: 0, Low: d.nextSynthRef}
	d.synthRefs[absPath] = ref
	return ref
}

// AddRepo registers a new repo rooted at rootPath. It rejects roots that
// overlap an already-registered repo in either direction, per spec's
// testable property that overlapping repos are rejected outright rather
// than silently double-indexed.
func (d *FileDrive) AddRepo(name, rootPath string) (*FileRepo, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("drive: unable to resolve repo root %q: %w", rootPath, err)
	}
	absRoot = filepath.Clean(absRoot)

	// reposMu serializes the whole add-repo sequence (distinct from mu,
	// which guards the per-file dual-map and must not be held across the
	// call into newFileRepo, since that call takes mu itself to record
	// the repo's root directory as file index 0).
	d.reposMu.Lock()
	defer d.reposMu.Unlock()

	d.mu.Lock()
	if _, exists := d.reposByName[name]; exists {
		d.mu.Unlock()
		return nil, fmt.Errorf("drive: repo name %q already registered", name)
	}
	for _, existing := range d.repos {
		if pathContains(existing.rootPath, absRoot) || pathContains(absRoot, existing.rootPath) {
			d.mu.Unlock()
			return nil, fmt.Errorf("drive: repo root %q overlaps existing repo %q (%q)", absRoot, existing.name, existing.rootPath)
		}
	}
	repoIndex := uint32(len(d.repos))
	d.mu.Unlock()

	if err := os.MkdirAll(absRoot, 0o777); err != nil {
		return nil, fmt.Errorf("drive: unable to create repo root %q: %w", absRoot, err)
	}

	repo := newFileRepo(repoIndex, name, absRoot, d, d.logger.Sublogger(name))

	d.mu.Lock()
	d.repos = append(d.repos, repo)
	d.reposByName[name] = repo
	d.mu.Unlock()

	return repo, nil
}

// pathContains reports whether child is equal to or nested under parent.
func pathContains(parent, child string) bool {
	if parent == child {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

// Repos returns every registered repo, in registration order.
func (d *FileDrive) Repos() []*FileRepo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FileRepo(nil), d.repos...)
}

// FindRepo looks up a repo by name.
func (d *FileDrive) FindRepo(name string) (*FileRepo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	repo, ok := d.reposByName[name]
	return repo, ok
}

// repoForID returns the repo that owns id, or nil. Callers must hold d.mu.
func (d *FileDrive) repoForID(id index.FileID) *FileRepo {
	if int(id.RepoIndex) >= len(d.repos) {
		return nil
	}
	return d.repos[id.RepoIndex]
}

// RepoForFileID returns the repo that owns id, or nil if id does not
// belong to any repo on this drive.
func (d *FileDrive) RepoForFileID(id index.FileID) *FileRepo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.repoForID(id)
}

// RescanLater schedules id for a delayed retry, per spec §4.5. It is the
// exported counterpart of rescanHook, for use by callers outside this
// package (the engine's steady-state loop).
func (d *FileDrive) RescanLater(id index.FileID) {
	d.rescanHook(id)
}

// Label returns the drive's human-readable identifier.
func (d *FileDrive) Label() string { return d.label }

// File resolves a FileID to its record.
func (d *FileDrive) File(id index.FileID) (*index.FileInfo, bool) {
	d.mu.Lock()
	repo := d.repoForID(id)
	d.mu.Unlock()
	if repo == nil {
		return nil, false
	}
	file := repo.File(id)
	return file, file != nil
}

// FindFileID resolves an absolute path to the FileID the index has
// recorded for it, if any.
func (d *FileDrive) FindFileID(absPath string) (index.FileID, bool) {
	repo, relative, ok := d.resolveRepoPath(absPath)
	if !ok {
		return index.FileID{}, false
	}
	hash := index.HashPath(repo.rootPath, relative)

	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.filesByHash[hash]
	return id, ok
}

// resolveRepoPath finds the repo that contains absPath and the
// repo-relative path within it.
func (d *FileDrive) resolveRepoPath(absPath string) (repo *FileRepo, relative string, ok bool) {
	d.mu.Lock()
	repos := append([]*FileRepo(nil), d.repos...)
	d.mu.Unlock()

	for _, r := range repos {
		if !pathContains(r.rootPath, absPath) {
			continue
		}
		rel, err := filepath.Rel(r.rootPath, absPath)
		if err != nil {
			continue
		}
		if rel == "." {
			rel = ""
		}
		return r, index.NormalizeRelative(filepath.ToSlash(rel)), true
	}
	return nil, "", false
}

// tombstoneLocked marks file deleted and notifies the cooking system. If
// file is a directory, it also cascades the tombstone to every file in the
// same repo whose path is nested under it, since the change journal never
// emits individual delete records for a directory's children. Callers must
// hold d.mu.
func (d *FileDrive) tombstoneLocked(file *index.FileInfo, timestamp index.FileTime) {
	wasDirectory := file.IsDirectory()
	repo := d.repoForID(file.ID())

	delete(d.filesByRef, file.RefNumber())
	file.Tombstone(timestamp)
	if d.metrics != nil {
		d.metrics.IncFilesTombstoned()
	}
	if d.cooking != nil {
		d.cooking.QueueUpdateDirtyState(file.ID())
	}

	if !wasDirectory || repo == nil {
		return
	}

	prefix := file.Path(repo.pool)
	if prefix != "" {
		prefix += "/"
	}
	for i := 0; i < repo.files.Len(); i++ {
		child := repo.files.At(i)
		if child == file || child.IsDeleted() {
			continue
		}
		childPath := child.Path(repo.pool)
		if prefix == "" || strings.HasPrefix(childPath, prefix) {
			delete(d.filesByRef, child.RefNumber())
			child.Tombstone(timestamp)
			if d.metrics != nil {
				d.metrics.IncFilesTombstoned()
			}
			if d.cooking != nil {
				d.cooking.QueueUpdateDirtyState(child.ID())
			}
		}
	}
}

// rescanHook schedules id for a delayed retry after a transient failure.
func (d *FileDrive) rescanHook(id index.FileID) {
	d.rescan.Push(id)
}

// DrainRescans returns every FileID whose rescan delay has elapsed.
func (d *FileDrive) DrainRescans() []index.FileID {
	return d.rescan.Ready()
}

// RescanQueueLen reports how many files are currently awaiting a rescan
// retry, for metrics reporting.
func (d *FileDrive) RescanQueueLen() int {
	return d.rescan.Len()
}

// ProcessMonitorDirectory implements spec §4.3's steady-state journal
// consumption: it drains every record currently available from the
// change-journal source and applies it to the index, routing each record
// to whichever repo's root contains the affected path.
func (d *FileDrive) ProcessMonitorDirectory(ctx context.Context) error {
	_, err := d.source.Read(ctx, func(rec journal.Record) {
		d.handleRecord(ctx, rec)
	})
	return err
}

func (d *FileDrive) handleRecord(ctx context.Context, rec journal.Record) {
	if d.metrics != nil {
		d.metrics.IncJournalRecordsRead()
	}

	ref := index.FileRefNumber{High: rec.FileRefHigh, Low: rec.FileRefLow}
	now := index.FileTimeFromTime(d.now())

	// A rename surfaces as a bare ReasonRenameNewName record on the native
	// NTFS backend, with no accompanying ReasonFileDelete bit. Per the
	// round-trip law in spec §8 it must be treated as both halves of a
	// rename: the FileID bound to the old path is tombstoned, and a fresh
	// FileID is created for the new path.
	isRename := rec.Reason&journal.ReasonRenameNewName != 0
	isDelete := rec.Reason&journal.ReasonFileDelete != 0 || isRename

	if isDelete {
		d.mu.Lock()
		id, known := d.filesByRef[ref]
		d.mu.Unlock()
		if known {
			if repo := d.RepoForFileID(id); repo != nil {
				if file := repo.File(id); file != nil {
					repo.MarkFileDeleted(file, now)
				}
			}
		}
		if !isRename {
			return
		}
	}

	d.mu.Lock()
	id, known := d.filesByRef[ref]
	d.mu.Unlock()

	if known {
		repo := d.RepoForFileID(id)
		if repo == nil {
			return
		}
		file := repo.File(id)
		if file == nil {
			return
		}
		file.SetLastChangeUSN(rec.USN)
		file.SetTimes(file.CreationTime(), now)
		if d.cooking != nil {
			d.cooking.QueueUpdateDirtyState(id)
		}
		return
	}

	path, err := d.source.PathForRef(ctx, rec.FileRefHigh, rec.FileRefLow)
	if err != nil {
		// The file may already be gone by the time we resolve its path;
		// that's a benign race, not a failure worth a rescan.
		return
	}

	repo, relative, ok := d.resolveRepoPath(path)
	if !ok {
		return
	}

	file, _, _ := repo.GetOrAddFile(relative, rec.IsDirectory, ref)
	file.SetLastChangeUSN(rec.USN)
	file.SetTimes(file.CreationTime(), now)
	if d.cooking != nil {
		d.cooking.QueueUpdateDirtyState(file.ID())
	}
}

// isTransientOpenError reports whether err looks like a transient,
// retry-worthy failure (e.g. another process has the file open
// exclusively) as opposed to a condition that indicates a deeper,
// unrecoverable problem.
func isTransientOpenError(err error) bool {
	return os.IsPermission(err)
}
