package library

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// fileRepository persists one collection as a flat file with one record per
// line. It holds no records itself; the owning store keeps the in-memory copy.
type fileRepository[T any] struct {
	path  string
	codec lineCodec[T]
	match lineCodec[T] // decodes lines while locating a record to rewrite
	key   func(T) int  // nil for append-only collections
	log   *slog.Logger
}

func newFileRepository[T any](path string, codec lineCodec[T], key func(T) int, log *slog.Logger) *fileRepository[T] {
	return &fileRepository[T]{path: path, codec: codec, match: codec, key: key, log: log}
}

// occurrence counts the items before v that share its key, identifying v
// among duplicates by identity.
func occurrence[T comparable](items []T, v T, key func(T) int) int {
	n := 0
	for _, it := range items {
		if it == v {
			return n
		}
		if key(it) == key(v) {
			n++
		}
	}
	return n
}

// LoadAll decodes every well-formed record in file order. A missing file is an
// empty collection; malformed lines are logged and skipped.
func (r *fileRepository[T]) LoadAll() ([]T, error) {
	lines, err := r.readLines()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		v, err := r.codec.Decode(line)
		if err != nil {
			r.log.Warn("skipping unreadable record", "file", r.path, "line", i+1, "err", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// AppendOne adds a record to the end of the file, creating it if needed.
func (r *fileRepository[T]) AppendOne(v T) error {
	line := r.codec.Encode(v) + "\n"
	needsNewline, err := r.endsWithoutNewline()
	if err != nil {
		return err
	}
	if needsNewline {
		line = "\n" + line
	}

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", r.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", r.path, err)
	}
	r.log.Debug("record appended", "file", r.path)
	return f.Close()
}

// RewriteOne replaces the stored record for v and passes every other line
// through untouched. nth picks among records sharing v's key, counted in file
// order, so a duplicated id only ever rewrites its own line. If the record is
// not found, v is appended so the update is not lost.
func (r *fileRepository[T]) RewriteOne(v T, nth int) error {
	if r.key == nil {
		return fmt.Errorf("rewrite %s: collection is append-only", r.path)
	}
	lines, err := r.readLines()
	if err != nil {
		return err
	}

	want := r.key(v)
	seen := 0
	replaced := false
	for i, line := range lines {
		stored, err := r.match.Decode(line)
		if err != nil || r.key(stored) != want {
			continue
		}
		if seen == nth {
			lines[i] = r.codec.Encode(v)
			replaced = true
			break
		}
		seen++
	}
	if !replaced {
		r.log.Warn("record missing from file, appending", "file", r.path, "id", want)
		lines = append(lines, r.codec.Encode(v))
	}
	return r.replace(lines)
}

// RewriteAll replaces the whole file with the given records.
func (r *fileRepository[T]) RewriteAll(vs []T) error {
	lines := make([]string, 0, len(vs))
	for _, v := range vs {
		lines = append(lines, r.codec.Encode(v))
	}
	return r.replace(lines)
}

func (r *fileRepository[T]) readLines() ([]string, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	return lines, nil
}

func (r *fileRepository[T]) endsWithoutNewline() (bool, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", r.path, err)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return false, fmt.Errorf("read %s: %w", r.path, err)
	}
	return last[0] != '\n', nil
}

// replace writes lines to a temporary file next to the target and renames it
// over the target, so readers see either the old or the new file.
func (r *fileRepository[T]) replace(lines []string) (err error) {
	dir, base := filepath.Split(r.path)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", r.path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err = w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write temp for %s: %w", r.path, err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("write temp for %s: %w", r.path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", r.path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", r.path, err)
	}
	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	r.log.Debug("file rewritten", "file", r.path, "records", len(lines))
	return nil
}
