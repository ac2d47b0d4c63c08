package converter

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source supplies rule-set file contents by name. Build mode reads a local
// checkout, serve mode reads the cached upstream archive; the resolver does
// not care which.
type Source interface {
	// Names lists all available rule-set names, sorted.
	Names() ([]string, error)
	// Read returns the content of the named rule-set file. Any error is
	// treated by the resolver as "target not found".
	Read(name string) (string, error)
}

// DirSource reads rule-set files from a flat directory, one file per
// rule-set.
type DirSource struct {
	Dir string
}

func (s DirSource) Names() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s DirSource) Read(name string) (string, error) {
	path := filepath.Join(s.Dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: not a regular file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ArchivePrefix is the data directory inside the upstream
// domain-list-community archive.
const ArchivePrefix = "domain-list-community-master/data/"

// ZipSource reads rule-set files out of a domain-list-community ZIP archive.
type ZipSource struct {
	Reader *zip.Reader
	// Prefix is the in-archive path prefix; ArchivePrefix when empty.
	Prefix string
}

func (s ZipSource) prefix() string {
	if s.Prefix == "" {
		return ArchivePrefix
	}
	return s.Prefix
}

func (s ZipSource) Names() ([]string, error) {
	prefix := s.prefix()
	var names []string
	for _, file := range s.Reader.File {
		if !strings.HasPrefix(file.Name, prefix) || file.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(file.Name, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s ZipSource) Read(name string) (string, error) {
	path := s.prefix() + name
	for _, file := range s.Reader.File {
		if file.Name != path {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	return "", fmt.Errorf("file not found: %s", path)
}
