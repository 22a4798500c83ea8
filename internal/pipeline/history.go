package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// PreviewLength is the number of runes kept in a history preview.
const PreviewLength = 120

// HistoryEntry records one finished batch.
type HistoryEntry struct {
	Seq     int       `json:"seq"`
	Text    string    `json:"text"`
	Preview string    `json:"preview"`
	Status  Status    `json:"status"`
	At      time.Time `json:"at"`
}

// History is an append-only, in-memory log of batch results for the life
// of the process. It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	now     func() time.Time
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{now: time.Now}
}

// Append records text and returns the new entry. Sequence numbers start
// at 1.
func (h *History) Append(text string, status Status) HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := HistoryEntry{
		Seq:     len(h.entries) + 1,
		Text:    text,
		Preview: Preview(text, PreviewLength),
		Status:  status,
		At:      h.now(),
	}
	h.entries = append(h.entries, e)
	return e
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Get returns the entry with sequence number seq.
func (h *History) Get(seq int) (HistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if seq < 1 || seq > len(h.entries) {
		return HistoryEntry{}, false
	}
	return h.entries[seq-1], true
}

// Last returns the most recent entry.
func (h *History) Last() (HistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Preview returns the first n runes of text followed by "..." when text is
// longer than n.
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

// Line formats an entry the way history listings show it: "3. preview",
// with newlines flattened.
func (e HistoryEntry) Line() string {
	return fmt.Sprintf("%d. %s", e.Seq, strings.ReplaceAll(e.Preview, "\n", " "))
}
