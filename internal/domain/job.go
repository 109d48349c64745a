package domain

import (
	"strings"
	"time"
)

// NotFound stands in for any field an extractor could not find.
const NotFound = "N/A"

// StatusYetToApply is the status every new row starts with. Later transitions
// are made by hand in the sheet.
const StatusYetToApply = "Yet to Apply"

// DateLayout is the date_added column format.
const DateLayout = "2006-01-02"

// Source tags record which entry point produced a row.
const (
	SourceScript     = "Added via script"
	SourceFileImport = "Imported from file"
	SourceGUI        = "Added via GUI"
	SourceGUIImport  = "Imported from GUI"
	SourceMailbox    = "Imported from mailbox"
)

type JobPosting struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// Unresolved returns the posting extractors hand back when nothing could be read.
func Unresolved(url string) JobPosting {
	return JobPosting{
		Title:    NotFound,
		Company:  NotFound,
		Location: NotFound,
		URL:      url,
	}
}

// Resolved reports whether at least the title was extracted.
func (p JobPosting) Resolved() bool {
	return p.Title != NotFound
}

// TrackerRow is the unit persisted to the sheet. Built once right before the
// append and never read back.
type TrackerRow struct {
	Title     string
	Company   string
	Location  string
	URL       string
	DateAdded time.Time
	Status    string
	Source    string
}

func NewTrackerRow(p JobPosting, now time.Time, source string) TrackerRow {
	return TrackerRow{
		Title:     p.Title,
		Company:   p.Company,
		Location:  p.Location,
		URL:       p.URL,
		DateAdded: now,
		Status:    StatusYetToApply,
		Source:    strings.TrimSpace(source),
	}
}

// Values is the column layout of the tracker sheet:
// title, company, location, url, date_added, status, source.
func (r TrackerRow) Values() []any {
	return []any{
		r.Title,
		r.Company,
		r.Location,
		r.URL,
		r.DateAdded.Format(DateLayout),
		r.Status,
		r.Source,
	}
}
