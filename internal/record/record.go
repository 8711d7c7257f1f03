package record

import (
	"strings"
	"time"
)

// TimestampLayout is the YYYY-MM-DD HH:MM:SS format both sides of the sink agree on.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	DefaultTitle    = "Task"
	DefaultCategory = "#other"
)

// Columns is the number of cells in a rendered row (A:L).
const Columns = 12

// Record is one committed draft. It has no identity of its own until a sink
// assigns an ID.
type Record struct {
	ID        string
	Title     string
	Body      string
	Reserved  [5]string
	Category  string
	Done      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Compose joins fragments with newlines, in order, and stamps both timestamps
// with now.
func Compose(title, category string, fragments []string, now time.Time) Record {
	if title == "" {
		title = DefaultTitle
	}
	if category == "" {
		category = DefaultCategory
	}
	return Record{
		Title:     title,
		Body:      strings.Join(fragments, "\n"),
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Row renders the record as spreadsheet cells:
// id, title, body, five reserved cells, category, done flag, created, updated.
func (r Record) Row(loc *time.Location) []any {
	if loc == nil {
		loc = time.UTC
	}
	row := make([]any, 0, Columns)
	row = append(row, r.ID, r.Title, r.Body)
	for _, v := range r.Reserved {
		row = append(row, v)
	}
	done := "FALSE"
	if r.Done {
		done = "TRUE"
	}
	row = append(row,
		r.Category,
		done,
		FormatTime(r.CreatedAt, loc),
		FormatTime(r.UpdatedAt, loc),
	)
	return row
}

func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimestampLayout)
}
