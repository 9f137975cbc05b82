// Package journal accumulates per-entity success, skip, warning and error
// events during a harvest run and renders them into a durable report.
package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryKind distinguishes warnings from errors in the journal.
type EntryKind string

const (
	KindError   EntryKind = "error"
	KindWarning EntryKind = "warning"
)

// Subject identifies the entity an entry is about.
type Subject struct {
	ID    string
	Label string
}

func (s Subject) String() string {
	if s.Label == "" {
		return s.ID
	}
	return fmt.Sprintf("%s (%s)", s.Label, s.ID)
}

// Entry is one recorded event. Entries are append-only.
type Entry struct {
	Kind      EntryKind
	Subject   Subject
	Category  string
	Message   string
	Timestamp time.Time
}

// Stats carries the monotonically updated run counters.
type Stats struct {
	Successful int
	Failed     int
	Skipped    int
	TotalBytes int64

	SucceededSubjects []Subject
	FailedSubjects    []Subject
	SkippedSubjects   []Subject
}

// Total is the number of entities with a recorded outcome.
func (s *Stats) Total() int {
	return s.Successful + s.Failed + s.Skipped
}

// SuccessRate is the percentage of successful outcomes, 0 when nothing ran.
func (s *Stats) SuccessRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(total) * 100
}

// Journal collects run events. It is owned by a single orchestrator for the
// duration of one run; the pipeline is sequential so no locking is needed.
type Journal struct {
	RunID     uuid.UUID
	StartedAt time.Time

	entries []Entry
	stats   Stats
}

// New creates a journal for one run.
func New() *Journal {
	return &Journal{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
}

// Success records a completed entity, optionally with transferred bytes.
func (j *Journal) Success(subject Subject, bytes int64) {
	j.stats.Successful++
	j.stats.TotalBytes += bytes
	j.stats.SucceededSubjects = append(j.stats.SucceededSubjects, subject)
}

// Skip records an entity that needed no work.
func (j *Journal) Skip(subject Subject, reason string) {
	j.stats.Skipped++
	j.stats.SkippedSubjects = append(j.stats.SkippedSubjects, subject)
	if reason != "" {
		j.append(KindWarning, subject, "skipped", reason)
	}
}

// Failure records a failed entity with its reason.
func (j *Journal) Failure(subject Subject, category, message string) {
	j.stats.Failed++
	j.stats.FailedSubjects = append(j.stats.FailedSubjects, subject)
	j.append(KindError, subject, category, message)
}

// Warn records a non-fatal condition, such as a field that no extraction
// strategy could fill or an identifier outside verification tolerance.
func (j *Journal) Warn(subject Subject, category, message string) {
	j.append(KindWarning, subject, category, message)
}

func (j *Journal) append(kind EntryKind, subject Subject, category, message string) {
	j.entries = append(j.entries, Entry{
		Kind:      kind,
		Subject:   subject,
		Category:  category,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []Entry {
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Errors returns only the error entries.
func (j *Journal) Errors() []Entry {
	return j.filter(KindError)
}

// Warnings returns only the warning entries.
func (j *Journal) Warnings() []Entry {
	return j.filter(KindWarning)
}

func (j *Journal) filter(kind EntryKind) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Stats returns a snapshot of the run counters.
func (j *Journal) Stats() Stats {
	return j.stats
}
