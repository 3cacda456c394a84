// Package projects reads candidate repository lists and collects their
// lockfiles.
//
// A project list is a CSV file with at least a Name and a Url column:
//
//	Name,Url,Commits
//	express,https://github.com/expressjs/express,5600
//
// [Collector] samples the list at random, without repetition, and downloads
// each repository's package-lock.json until it holds the requested number
// of files or runs out of candidates.
package projects

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
)

// Project is one row of a project list.
type Project struct {
	Name string
	URL  string
}

// Column names looked up in the header, case-insensitively.
const (
	NameColumn = "Name"
	URLColumn  = "Url"
)

// ReadList loads the project list at path.
func ReadList(path string) ([]Project, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "project list %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseList(f)
}

// ParseList reads a project list. Rows with an empty name or URL are dropped.
func ParseList(r io.Reader) ([]Project, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "project list is empty")
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read project list header")
	}
	nameIdx, urlIdx := -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), NameColumn):
			nameIdx = i
		case strings.EqualFold(strings.TrimSpace(h), URLColumn):
			urlIdx = i
		}
	}
	if nameIdx < 0 || urlIdx < 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "project list needs %s and %s columns, got %v", NameColumn, URLColumn, header)
	}

	var list []Project
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read project list")
		}
		if nameIdx >= len(rec) || urlIdx >= len(rec) {
			continue
		}
		p := Project{Name: strings.TrimSpace(rec[nameIdx]), URL: strings.TrimSpace(rec[urlIdx])}
		if p.Name == "" || p.URL == "" {
			continue
		}
		list = append(list, p)
	}
	return list, nil
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

// FileName is the lockfile name a project is saved under.
func FileName(name string) string {
	return fileNameReplacer.Replace(strings.TrimSpace(name)) + ".json"
}
