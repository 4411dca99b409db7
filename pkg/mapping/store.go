package mapping

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/crypto/blake2b"

	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

var (
	ErrNotFound    = errors.New("mapping not found")
	ErrCorrupt     = errors.New("mapping file corrupt")
	ErrInvalidName = errors.New("invalid mapping name")
)

const (
	// Extension of stored mapping files.
	Extension = ".kgxmap"

	magic   = "KGXM"
	version = byte(1)
	// Format: [magic:4][version:1][blake2b-256 of payload:32][payload]
	// where payload is snappy(gob(map[string]string)).
	headerLen = len(magic) + 1 + blake2b.Size256
)

// Store keeps named mapping tables as files in one directory.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore uses dir, creating it on first save.
func NewStore(dir string, logger logging.Logger) *Store {
	return &Store{dir: dir, logger: logging.OrNop(logger)}
}

// DefaultDir is the per-user application directory for mappings.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "kgx"), nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file a mapping name is stored under.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+Extension), nil
}

// Save writes m under name, replacing any previous mapping, and returns the
// file path.
func (s *Store) Save(name string, m map[string]string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(m); err != nil {
		return "", fmt.Errorf("encode mapping: %w", err)
	}
	payload := snappy.Encode(nil, raw.Bytes())
	sum := blake2b.Sum256(payload)

	buf := make([]byte, 0, headerLen+len(payload))
	buf = append(buf, magic...)
	buf = append(buf, version)
	buf = append(buf, sum[:]...)
	buf = append(buf, payload...)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write mapping: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync mapping: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close mapping: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename mapping: %w", err)
	}

	s.logger.Info("mapping saved",
		logging.String("name", name),
		logging.Path(path),
		logging.Count(len(m)),
		logging.Int("bytes", len(buf)))
	return path, nil
}

// Load reads the mapping stored under name.
func (s *Store) Load(name string) (map[string]string, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	m, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Debug("mapping loaded", logging.String("name", name), logging.Count(len(m)))
	return m, nil
}

func decode(data []byte) (map[string]string, error) {
	if len(data) < headerLen || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := data[len(magic)]; v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	want := data[len(magic)+1 : headerLen]
	payload := data[headerLen:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(want, sum[:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var m map[string]string
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m == nil {
		m = make(map[string]string)
	}
	return m, nil
}

// Names lists stored mappings in sorted order. A missing directory holds
// no mappings.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), Extension); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored mapping.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return err
	}
	return nil
}
