package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const isoDate = "2006-01-02"

// MainpageImage is a single banner image with a validity window.
type MainpageImage struct {
	folder  string
	name    string
	start   time.Time
	end     time.Time
	hasEnd  bool
	cleared bool
}

// NewMainpageImage takes ownership of folder.
func NewMainpageImage(folder, name string, start time.Time) *MainpageImage {
	return &MainpageImage{folder: folder, name: name, start: start}
}

func (m *MainpageImage) Name() string         { return m.name }
func (m *MainpageImage) StartDate() time.Time { return m.start }
func (m *MainpageImage) Live() bool           { return !m.cleared }

// EndDate returns the operator-supplied end date, if any.
func (m *MainpageImage) EndDate() (time.Time, bool) { return m.end, m.hasEnd }

// StartISO and EndISO render dates the way the site template expects.
func (m *MainpageImage) StartISO() string { return m.start.Format(isoDate) }

func (m *MainpageImage) EndISO() string {
	if !m.hasEnd {
		return ""
	}
	return m.end.Format(isoDate)
}

// Path returns the image location or ErrItemCleared.
func (m *MainpageImage) Path() (string, error) {
	if m.cleared {
		return "", ErrItemCleared
	}
	return filepath.Join(m.folder, m.name), nil
}

// Folder returns the scratch folder or ErrItemCleared.
func (m *MainpageImage) Folder() (string, error) {
	if m.cleared {
		return "", ErrItemCleared
	}
	return m.folder, nil
}

// SetEndDate stores the end of the validity window.
func (m *MainpageImage) SetEndDate(end time.Time) error {
	if m.cleared {
		return ErrItemCleared
	}
	if end.Before(m.start) {
		return fmt.Errorf("end date %s is before start %s", end.Format(isoDate), m.StartISO())
	}
	m.end = end
	m.hasEnd = true
	return nil
}

// Commit and Rollback both discard the scratch folder; there is no source mail.
func (m *MainpageImage) Commit() error { return m.clear() }

func (m *MainpageImage) Rollback() error { return m.clear() }

func (m *MainpageImage) clear() error {
	if m.cleared {
		return ErrItemCleared
	}
	m.cleared = true
	if err := os.RemoveAll(m.folder); err != nil {
		return fmt.Errorf("remove banner folder: %w", err)
	}
	return nil
}
