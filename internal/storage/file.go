package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	stateFileName = "storage.json"
	appDirName    = "steamfolio"
)

// FileProvider persists all keys in a single JSON document on local disk,
// the device-local counterpart of browser storage.
type FileProvider struct {
	mu  sync.Mutex
	dir string
}

// NewFileProvider creates a provider that stores its document in dir.
// Pass an empty string to use the default XDG state path.
func NewFileProvider(dir string) *FileProvider {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &FileProvider{dir: dir}
}

// Path returns the full path to the state document.
func (p *FileProvider) Path() string {
	return filepath.Join(p.dir, stateFileName)
}

func (p *FileProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.read()
	if err != nil {
		return nil, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (p *FileProvider) Set(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.read()
	if err != nil {
		return err
	}
	doc[key] = string(value)
	return p.write(doc)
}

func (p *FileProvider) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return p.write(doc)
}

func (p *FileProvider) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

func (p *FileProvider) read() (map[string]string, error) {
	data, err := os.ReadFile(p.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	doc := make(map[string]string)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return doc, nil
}

// write replaces the document using a temp-file-then-rename.
func (p *FileProvider) write(doc map[string]string) error {
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(p.dir, ".storage-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, p.Path()); err != nil {
		return fmt.Errorf("renaming state file: %w", err)
	}
	committed = true
	return nil
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDirName)
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
