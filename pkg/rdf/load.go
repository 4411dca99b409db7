package rdf

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/mmap"
)

// LoadFile memory-maps an RDF file in syntax (gzip-compressed when the
// name ends in .gz) and adds its statements to s.
func (s *Store) LoadFile(path string, syntax Syntax) (int64, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer ra.Close()

	var r io.Reader = io.NewSectionReader(ra, 0, int64(ra.Len()))
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return 0, fmt.Errorf("gunzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	n, err := s.Read(r, syntax)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	return n, nil
}

// LoadFiles reads every path into a fresh store, taking each file's
// syntax from its name.
func LoadFiles(paths ...string) (*Store, error) {
	s := NewStore()
	for _, p := range paths {
		syntax, err := SyntaxOf(p)
		if err != nil {
			return nil, err
		}
		if _, err := s.LoadFile(p, syntax); err != nil {
			return nil, err
		}
	}
	return s, nil
}
