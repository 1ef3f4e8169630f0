// Package inbox owns the triage lifecycle of shared items: the status
// state machine, the append-only audit history and the bounded store.
package inbox

import (
	"time"

	"github.com/google/uuid"
)

// Status is the triage state of an item. Transitions are deliberately
// unrestricted: any state may move to any other, including done → new.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the three triage states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// EntryType classifies audit history entries.
type EntryType string

const (
	EntryCreated           EntryType = "created"
	EntryStatusChanged     EntryType = "status_changed"
	EntryMovedToChat       EntryType = "moved_to_chat"
	EntryExportedToProject EntryType = "exported_to_project"
	EntryNote              EntryType = "note"
)

// Valid reports whether t is a known history entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryCreated, EntryStatusChanged, EntryMovedToChat, EntryExportedToProject, EntryNote:
		return true
	}
	return false
}

// maxHistoryEntries bounds the audit log per item; the oldest entries are
// discarded first once the bound is hit.
const maxHistoryEntries = 40

// HistoryEntry is one append-only audit record. Ascending order by At is
// maintained at construction time, not re-sorted on read.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Type       EntryType `json:"type"`
	At         time.Time `json:"at"`
	Note       string    `json:"note,omitempty"`
	FromStatus Status    `json:"from_status,omitempty"`
	ToStatus   Status    `json:"to_status,omitempty"`
}

// Item is one triage card in the share inbox.
type Item struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Title     string         `json:"title,omitempty"`
	Content   string         `json:"content"`
	URL       string         `json:"url,omitempty"`
	Author    string         `json:"author,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Status    Status         `json:"status"`
	History   []HistoryEntry `json:"history"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func nowUTC() time.Time { return time.Now().UTC() }

// NewItem creates an item in status new with exactly one created entry
// recording the initial status.
func NewItem(source, title, content, url, author string, tags []string) *Item {
	now := nowUTC()
	item := &Item{
		ID:        uuid.NewString(),
		Source:    source,
		Title:     title,
		Content:   content,
		URL:       url,
		Author:    author,
		Tags:      tags,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.appendHistory(HistoryEntry{
		Type:     EntryCreated,
		ToStatus: StatusNew,
	})
	return item
}

// SetStatus moves the item to the requested status. A real change (old ≠
// new) appends a status_changed entry capturing both endpoints; asking
// for the current status touches nothing.
func (it *Item) SetStatus(next Status) {
	if next == it.Status {
		return
	}
	prev := it.Status
	it.Status = next
	it.appendHistory(HistoryEntry{
		Type:       EntryStatusChanged,
		FromStatus: prev,
		ToStatus:   next,
	})
}

// AddAction appends an auxiliary audit entry (moved_to_chat,
// exported_to_project, note) regardless of any status change.
func (it *Item) AddAction(entryType EntryType, note string) {
	it.appendHistory(HistoryEntry{
		Type: entryType,
		Note: note,
	})
}

func (it *Item) appendHistory(entry HistoryEntry) {
	entry.ID = uuid.NewString()
	if entry.At.IsZero() {
		entry.At = nowUTC()
	}
	it.History = append(it.History, entry)
	if len(it.History) > maxHistoryEntries {
		it.History = it.History[len(it.History)-maxHistoryEntries:]
	}
}

// clone returns a deep copy safe to hand outside the store's lock.
func (it *Item) clone() Item {
	out := *it
	out.Tags = append([]string(nil), it.Tags...)
	out.History = append([]HistoryEntry(nil), it.History...)
	return out
}
