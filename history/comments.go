package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// CommentLog remembers which comment IDs have already been replied to, so a
// restarted watcher never answers the same comment twice. One log instance
// is shared by all watchers over the same file; Seen and Mark are safe for
// concurrent use.
type CommentLog struct {
	path string

	mu   sync.Mutex
	seen map[string]bool
}

type commentFile struct {
	CommentIDs []string `json:"comment_ids"`
}

// LoadComments reads the processed-comment log from path. Missing or corrupt
// files start an empty log.
func LoadComments(path string) *CommentLog {
	l := &CommentLog{path: path, seen: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not read comment log, starting fresh", "path", path, "error", err)
		}
		return l
	}

	var file commentFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.Warn("corrupt comment log, starting fresh", "path", path, "error", err)
		return l
	}
	for _, id := range file.CommentIDs {
		l.seen[id] = true
	}
	return l
}

// Seen reports whether a comment has already been processed.
func (l *CommentLog) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[id]
}

// Mark records a comment as processed and persists the log immediately.
func (l *CommentLog) Mark(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[id] = true
	return l.save()
}

// save rewrites the log file; the caller holds mu.
func (l *CommentLog) save() error {
	ids := make([]string, 0, len(l.seen))
	for id := range l.seen {
		ids = append(ids, id)
	}

	data, err := json.Marshal(commentFile{CommentIDs: ids})
	if err != nil {
		return fmt.Errorf("marshal comment log: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create comment log dir: %w", err)
		}
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write comment log: %w", err)
	}
	return nil
}
