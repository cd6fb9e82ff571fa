package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"propertymatch/internal/model"
)

// FileStore keeps one JSON embeddings file per source in a directory.
// Each file is an array of {id, source, position, content, embedding, metadata, link}.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the embeddings file of a source. The source id is
// path-escaped, so distinct ids never share a file and none leaves dir.
func (f *FileStore) Path(source string) string {
	return filepath.Join(f.dir, url.PathEscape(source)+".json")
}

// ReplaceSource implements CorpusStore. The file is written to a temp file
// and renamed so readers never see a partial corpus.
func (f *FileStore) ReplaceSource(ctx context.Context, source string, records []model.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.Path(source)
	if len(records) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".corpus-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// LoadAll implements CorpusStore
func (f *FileStore) LoadAll(ctx context.Context) ([]model.EmbeddingRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	files, err := f.files()
	if err != nil {
		return nil, err
	}

	var all []model.EmbeddingRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := readRecords(path)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// Sources implements CorpusStore
func (f *FileStore) Sources(ctx context.Context) ([]model.SourceInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	files, err := f.files()
	if err != nil {
		return nil, err
	}

	infos := make([]model.SourceInfo, 0, len(files))
	for _, path := range files {
		records, err := readRecords(path)
		if err != nil {
			return nil, err
		}
		source := strings.TrimSuffix(filepath.Base(path), ".json")
		if unescaped, err := url.PathUnescape(source); err == nil {
			source = unescaped
		}
		if len(records) > 0 && records[0].Source != "" {
			source = records[0].Source
		}
		infos = append(infos, model.SourceInfo{Source: source, Records: len(records)})
	}
	return infos, nil
}

func (f *FileStore) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func readRecords(path string) ([]model.EmbeddingRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []model.EmbeddingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

var _ CorpusStore = (*FileStore)(nil)
