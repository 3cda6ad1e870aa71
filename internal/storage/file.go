package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/starford/anchor/internal/apperr"
	"github.com/starford/anchor/internal/checksum"
	"github.com/starford/anchor/internal/models"
)

// DefaultFileName is the name of the data file inside the data directory.
const DefaultFileName = "data.json"

const tmpPattern = ".anchor-tmp-*"

// File implements Provider backed by one JSON document on the local disk.
type File struct {
	path   string // absolute path to data.json
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	lastWrite string // checksum of the last content written by this process
}

// NewFile creates a File provider for the given path. The file and its
// directory are created lazily on the first SaveAll.
func NewFile(path string, logger *slog.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("storage: empty data file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: abs, logger: logger, now: time.Now}, nil
}

// Path returns the absolute path of the data file.
func (f *File) Path() string { return f.path }

// LoadAll reads the collection. Only genuine read failures are returned;
// absence, emptiness and parse failures all produce an empty slice.
func (f *File) LoadAll() ([]models.Reference, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Reference{}, nil
		}
		return nil, &apperr.IOError{Op: "read", Path: f.path, Err: err}
	}
	refs, err := decode(data)
	if err != nil {
		f.logger.Warn("storage: data file unparsable, treating as empty",
			slog.String("path", f.path),
			slog.String("error", err.Error()))
		return []models.Reference{}, nil
	}
	return refs, nil
}

// SaveAll writes the full collection: tmp file → fsync → rename.
// An existing file that does not parse is moved aside first.
func (f *File) SaveAll(refs []models.Reference) error {
	content, err := encode(refs)
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &apperr.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	if err := f.preserveCorrupt(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return &apperr.IOError{Op: "create temp", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return &apperr.IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &apperr.IOError{Op: "fsync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &apperr.IOError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return &apperr.IOError{Op: "rename", Path: f.path, Err: err}
	}
	success = true

	f.mu.Lock()
	f.lastWrite = checksum.Sum(content)
	f.mu.Unlock()
	return nil
}

// IsOwnWrite reports whether data is exactly what this process last wrote.
func (f *File) IsOwnWrite(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastWrite != "" && f.lastWrite == checksum.Sum(data)
}

// preserveCorrupt renames an unparsable data file to
// data.json.corrupt-<stamp> so the next write does not destroy it.
func (f *File) preserveCorrupt() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &apperr.IOError{Op: "read", Path: f.path, Err: err}
	}
	if _, err := decode(data); err == nil {
		return nil
	}
	backup := f.path + ".corrupt-" + f.now().UTC().Format("20060102T150405.000000000Z")
	if err := os.Rename(f.path, backup); err != nil {
		return &apperr.IOError{Op: "backup", Path: backup, Err: err}
	}
	f.logger.Warn("storage: moved unparsable data file aside",
		slog.String("path", f.path),
		slog.String("backup", backup))
	return nil
}

func decode(data []byte) ([]models.Reference, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Reference{}, nil
	}
	var sf models.StorageFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	if sf.References == nil {
		return []models.Reference{}, nil
	}
	for i := range sf.References {
		if sf.References[i].Tags == nil {
			sf.References[i].Tags = []string{}
		}
	}
	return sf.References, nil
}

func encode(refs []models.Reference) ([]byte, error) {
	out := make([]models.Reference, len(refs))
	copy(out, refs)
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models.StorageFile{References: out}); err != nil {
		return nil, err
	}
	// Encode appends a newline; files written by earlier versions have none.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
