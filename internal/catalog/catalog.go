package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
)

// Entry is one immutable row of the course reference catalog, uniquely keyed
// by (Subject, Number).
type Entry struct {
	Subject          string
	Number           string
	Title            string
	Description      string
	CreditHours      string
	DegreeAttributes string
}

// Code returns the display code, e.g. "CS 225".
func (e Entry) Code() string {
	return e.Subject + " " + e.Number
}

// Option is the catalog entry shape exposed to clients.
type Option struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// Catalog holds the parsed course reference table. It is constructed once at
// startup and passed to every consumer; there is no package-level state.
//
// The reference file fails open: a missing or malformed file leaves the
// catalog empty, and validation against an empty catalog reports
// "unavailable" rather than rejecting courses.
type Catalog struct {
	path   string
	logger *zap.Logger

	once    sync.Once
	entries []Entry
	byKey   map[string]int
}

// New constructs a Catalog for the given CSV path. Call Load before use.
func New(path string, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{path: path, logger: logger}
}

// Load reads and parses the reference file. It runs at most once per process;
// concurrent first calls are safe.
func (c *Catalog) Load() {
	c.once.Do(c.load)
}

func (c *Catalog) load() {
	f, err := os.Open(c.path)
	if err != nil {
		c.logger.Error("failed to open course catalog", zap.String("path", c.path), zap.Error(err))
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		c.logger.Error("failed to parse course catalog", zap.String("path", c.path), zap.Error(err))
		return
	}
	if len(records) < 2 {
		c.logger.Warn("course catalog has no data rows", zap.String("path", c.path))
		return
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	entries := make([]Entry, 0, len(records)-1)
	byKey := make(map[string]int, len(records)-1)
	for _, row := range records[1:] {
		entry := Entry{
			Subject:          field(row, "Subject"),
			Number:           field(row, "Number"),
			Title:            field(row, "Title"),
			Description:      field(row, "Description"),
			CreditHours:      field(row, "CreditHours"),
			DegreeAttributes: field(row, "DegreeAttributes"),
		}
		key := pairKey(entry.Subject, entry.Number)
		if _, dup := byKey[key]; !dup {
			byKey[key] = len(entries)
		}
		entries = append(entries, entry)
	}

	c.entries = entries
	c.byKey = byKey
	c.logger.Info("course catalog loaded", zap.Int("entries", len(entries)))
}

// Len returns the number of loaded entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup resolves a course code ("CS 225") to its catalog entry.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	subject, number, ok := splitCode(code)
	if !ok {
		return Entry{}, false
	}
	idx, ok := c.byKey[pairKey(subject, number)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Validate checks that the code exists in the catalog and that the supplied
// name matches the canonical title (case-insensitive). An empty catalog means
// validation is unavailable, not that the course is invalid.
func (c *Catalog) Validate(code, name string) error {
	if len(c.entries) == 0 {
		return appErrors.ErrCatalogUnavailable
	}

	subject, number, ok := splitCode(code)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, `invalid course code format, expected "SUBJECT NUMBER" like "CS 225"`)
	}

	idx, ok := c.byKey[pairKey(subject, number)]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s %s not found in course catalog", subject, number))
	}

	entry := c.entries[idx]
	if !strings.EqualFold(entry.Title, strings.TrimSpace(name)) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course name doesn't match catalog, expected %q", entry.Title))
	}

	return nil
}

// List returns every entry as a display option in load order, skipping rows
// with a missing code, name or subject.
func (c *Catalog) List() []Option {
	options := make([]Option, 0, len(c.entries))
	for _, entry := range c.entries {
		if entry.Subject == "" || entry.Number == "" || entry.Title == "" {
			continue
		}
		options = append(options, Option{
			Code:    entry.Code(),
			Name:    entry.Title,
			Subject: entry.Subject,
		})
	}
	return options
}

// Search returns options whose code or title contains q, case-insensitively.
func (c *Catalog) Search(q string) []Option {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return c.List()
	}

	var options []Option
	for _, entry := range c.entries {
		if entry.Subject == "" || entry.Number == "" || entry.Title == "" {
			continue
		}
		if strings.Contains(strings.ToLower(entry.Code()), q) || strings.Contains(strings.ToLower(entry.Title), q) {
			options = append(options, Option{
				Code:    entry.Code(),
				Name:    entry.Title,
				Subject: entry.Subject,
			})
		}
	}
	return options
}

func splitCode(code string) (subject, number string, ok bool) {
	parts := strings.Fields(code)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func pairKey(subject, number string) string {
	return subject + "\x00" + number
}
