package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// TranscriptStore persists finished games as one YAML file each.
type TranscriptStore interface {
	// Save assigns the next G-XXXXX ID and writes the transcript,
	// returning the file path.
	Save(t models.Transcript) (string, error)
	List() ([]models.Transcript, error)
}

type fileTranscriptStore struct {
	dir string
}

// NewTranscriptStore creates a TranscriptStore writing into dir.
func NewTranscriptStore(dir string) TranscriptStore {
	return &fileTranscriptStore{dir: dir}
}

func (s *fileTranscriptStore) counterPath() string {
	return filepath.Join(s.dir, ".game_counter")
}

func (s *fileTranscriptStore) nextID() (string, error) {
	unlock, err := lockFile(s.counterPath())
	if err != nil {
		return "", err
	}
	defer unlock() //nolint:errcheck // released on close regardless

	counter := 0
	data, err := os.ReadFile(s.counterPath())
	if err != nil {
		return "", fmt.Errorf("reading counter: %w", err)
	}
	if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
		counter, err = strconv.Atoi(trimmed)
		if err != nil {
			return "", fmt.Errorf("parsing counter: %w", err)
		}
	}

	counter++
	if err := os.WriteFile(s.counterPath(), []byte(strconv.Itoa(counter)), 0o600); err != nil {
		return "", fmt.Errorf("writing counter: %w", err)
	}
	return fmt.Sprintf("G-%05d", counter), nil
}

// lockFile takes an exclusive flock on path, creating it if needed.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}
	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}

func (s *fileTranscriptStore) Save(t models.Transcript) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("saving transcript: creating directory: %w", err)
	}
	id, err := s.nextID()
	if err != nil {
		return "", fmt.Errorf("saving transcript: %w", err)
	}
	t.ID = id

	data, err := yaml.Marshal(&t)
	if err != nil {
		return "", fmt.Errorf("saving transcript: marshalling: %w", err)
	}
	path := filepath.Join(s.dir, id+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("saving transcript: writing %s: %w", path, err)
	}
	return path, nil
}

// List returns every saved transcript ordered by ID. A missing directory
// yields none.
func (s *fileTranscriptStore) List() ([]models.Transcript, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}

	var out []models.Transcript
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "G-") || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading transcript %s: %w", e.Name(), err)
		}
		var t models.Transcript
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing transcript %s: %w", e.Name(), err)
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
