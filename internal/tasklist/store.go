package tasklist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
	dperrors "github.com/mrz1836/deepplan/internal/errors"
	"github.com/mrz1836/deepplan/internal/flock"
)

// LockTimeout is the maximum duration to wait for the task-list write lock.
const LockTimeout = 5 * time.Second

// Directory and file permission constants.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Store persists task records as one JSON file per position under
// <root>/<task_list_id>/. The tasks root is resolved once by the caller and
// threaded in; Store never reads the environment.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root. An empty root selects the
// default host task storage location under the user's home directory.
func NewStore(root string) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, constants.TasksRootDir)
	}
	return &Store{root: root}, nil
}

// Dir returns the directory holding task files for a task list ID.
func (s *Store) Dir(taskListID string) string {
	return filepath.Join(s.root, taskListID)
}

// ReadCurrent reads the task records for a task list, keyed by position.
// A missing directory yields an empty map. Files with non-numeric names or
// contents failing the record schema are treated as absent. Obsolete
// records ARE included — reconciliation needs them to avoid double-marking.
func (s *Store) ReadCurrent(ctx context.Context, taskListID string) (map[domain.Position]domain.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	records := make(map[domain.Position]domain.Record)
	if taskListID == "" {
		return records, nil
	}

	dir := s.Dir(taskListID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("failed to read task list %q: %w", taskListID, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		position, convErr := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json"))
		if convErr != nil {
			continue
		}

		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name())) //#nosec G304 -- path is constructed from the store root
		if readErr != nil {
			continue
		}
		if !validRecord(data) {
			continue
		}

		var file domain.TaskFile
		if unmarshalErr := json.Unmarshal(data, &file); unmarshalErr != nil {
			continue
		}

		records[domain.Position(position)] = domain.Record{
			Position:    domain.Position(position),
			Subject:     file.Subject,
			Description: file.Description,
			ActiveForm:  file.ActiveForm,
			Status:      file.Status,
			Blocks:      file.Blocks,
			BlockedBy:   file.BlockedBy,
		}
	}

	return records, nil
}

// WriteResult reports the outcome of a direct task write.
type WriteResult struct {
	TasksWritten int
	TasksDir     string
}

// WriteTasks writes task files directly to the task list directory,
// applying the dependency graph's edges to each task, then retires any
// existing records beyond the highest written position.
//
// An advisory lock is held for the duration of the write phase so two
// concurrent runs against the same list serialize rather than interleave.
// Individual files are written atomically (temp + rename), but there is no
// cross-file rollback: a partially-written batch is acceptable because the
// next run's diff repairs it.
func (s *Store) WriteTasks(
	ctx context.Context,
	taskListID string,
	tasks []domain.Task,
	graph domain.DependencyGraph,
) (*WriteResult, error) {
	if taskListID == "" {
		return nil, fmt.Errorf("%w: task list ID %s", dperrors.ErrTaskWrite, dperrors.ErrEmptyValue)
	}

	dir := s.Dir(taskListID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrTaskWrite, err)
	}

	lockFile, err := s.acquireLock(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrTaskWrite, err)
	}
	defer func() { _ = s.releaseLock(lockFile) }()

	var maxWritten domain.Position
	for _, task := range tasks {
		file := task.File()
		if edges, ok := graph[task.Position]; ok {
			file.Blocks = edges.Blocks
			file.BlockedBy = edges.BlockedBy
		}

		data, marshalErr := json.MarshalIndent(file, "", "  ")
		if marshalErr != nil {
			return nil, fmt.Errorf("%w: %s", dperrors.ErrTaskWrite, marshalErr)
		}

		path := filepath.Join(dir, fmt.Sprintf("%d.json", task.Position))
		if writeErr := atomicWrite(path, data); writeErr != nil {
			return nil, fmt.Errorf("%w: %s", dperrors.ErrTaskWrite, writeErr)
		}

		if task.Position > maxWritten {
			maxWritten = task.Position
		}
	}

	if err := s.markExtraObsolete(dir, maxWritten); err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrTaskWrite, err)
	}

	return &WriteResult{TasksWritten: len(tasks), TasksDir: dir}, nil
}

// markExtraObsolete retires existing task files beyond maxWritten with the
// obsolete sentinel. Existing blocks/blockedBy edges are preserved so other
// records still pointing at a retired position stay internally consistent.
// Already-obsolete records are left untouched (idempotent under reruns).
func (s *Store) markExtraObsolete(dir string, maxWritten domain.Position) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		position, convErr := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json"))
		if convErr != nil {
			continue
		}
		if domain.Position(position) <= maxWritten {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, readErr := os.ReadFile(path) //#nosec G304 -- path is constructed from the store root
		if readErr != nil {
			continue
		}

		// Preserve unknown fields: unmarshal into a generic map so any
		// host-side metadata survives the retirement rewrite.
		var record map[string]any
		if unmarshalErr := json.Unmarshal(data, &record); unmarshalErr != nil {
			continue
		}
		if record["subject"] == constants.ObsoleteSubject &&
			record["status"] == string(constants.TaskStatusCompleted) {
			continue
		}

		record["subject"] = constants.ObsoleteSubject
		record["status"] = string(constants.TaskStatusCompleted)
		if _, ok := record["blocks"]; !ok {
			record["blocks"] = []string{}
		}
		if _, ok := record["blockedBy"]; !ok {
			record["blockedBy"] = []string{}
		}

		out, marshalErr := json.MarshalIndent(record, "", "  ")
		if marshalErr != nil {
			continue
		}
		if writeErr := atomicWrite(path, out); writeErr != nil {
			return writeErr
		}
	}

	return nil
}

// ConflictInfo describes pre-existing work found in a user-specified shared
// task list.
type ConflictInfo struct {
	TaskListID        string   `json:"task_list_id"`
	ExistingTaskCount int      `json:"existing_task_count"`
	SampleSubjects    []string `json:"sample_subjects"`
}

// CheckForConflict reports whether reconciling against this task list needs
// explicit confirmation. Only user-specified shared lists can conflict —
// pre-existing records in a session-scoped list are the normal resume case.
// Obsolete records do not count as foreign work.
func CheckForConflict(tlc Context, current map[domain.Position]domain.Record) *ConflictInfo {
	if !tlc.IsUserSpecified {
		return nil
	}

	positions := make([]domain.Position, 0, len(current))
	for pos, record := range current {
		if record.IsObsolete() {
			continue
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return nil
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	samples := make([]string, 0, 3)
	for _, pos := range positions {
		if len(samples) == 3 {
			break
		}
		samples = append(samples, current[pos].Subject)
	}

	return &ConflictInfo{
		TaskListID:        tlc.TaskListID,
		ExistingTaskCount: len(positions),
		SampleSubjects:    samples,
	}
}

// acquireLock takes an exclusive advisory lock on the task list directory's
// lock file, polling until LockTimeout.
func (s *Store) acquireLock(ctx context.Context, dir string) (*os.File, error) {
	lockPath := filepath.Join(dir, ".lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerm) //#nosec G302,G304 -- lock file needs write access, path is constructed internally
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(LockTimeout)
	for {
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		default:
		}

		if lockErr := flock.Exclusive(f.Fd()); lockErr == nil {
			return f, nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock: %w", dperrors.ErrLockTimeout)
		}

		time.Sleep(50 * time.Millisecond)
	}
}

// releaseLock releases the advisory lock and closes the lock file.
func (s *Store) releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	unlockErr := flock.Unlock(f.Fd())
	closeErr := f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// atomicWrite writes data to path via a temp file and rename so readers
// never observe a partially-written task file.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
