// Package event defines the index events published while documents are
// scanned, re-indexed and removed.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeDocumentIndexed = "document.indexed"
	TypeDocumentRemoved = "document.removed"
	TypeIndexCompleted  = "index.completed"
)

// IndexEvent carries the common shape of every index event.
type IndexEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Path       string          `json:"path,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Publisher sends events to downstream consumers.
type Publisher interface {
	Publish(evt IndexEvent)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(IndexEvent) {}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// DocumentIndexedPayload describes a document written to the store.
type DocumentIndexedPayload struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Mtime  int64  `json:"mtime"`
	Tags   int    `json:"tags"`
	Links  int    `json:"links"`
	Embeds int    `json:"embeds"`
}

func NewDocumentIndexed(p DocumentIndexedPayload) IndexEvent {
	return IndexEvent{
		ID:         newID(),
		EventType:  TypeDocumentIndexed,
		OccurredAt: time.Now(),
		Path:       p.Path,
		Summary:    fmt.Sprintf("Indexed %s (%d tags, %d links)", p.Path, p.Tags, p.Links),
		Payload:    mustJSON(p),
	}
}

func NewDocumentRemoved(path string) IndexEvent {
	return IndexEvent{
		ID:         newID(),
		EventType:  TypeDocumentRemoved,
		OccurredAt: time.Now(),
		Path:       path,
		Summary:    "Removed " + path,
	}
}

// IndexCompletedPayload summarises one directory scan.
type IndexCompletedPayload struct {
	Dir      string        `json:"dir"`
	Scanned  int           `json:"scanned"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

func NewIndexCompleted(p IndexCompletedPayload) IndexEvent {
	return IndexEvent{
		ID:         newID(),
		EventType:  TypeIndexCompleted,
		OccurredAt: time.Now(),
		Path:       p.Dir,
		Summary:    fmt.Sprintf("Indexed %d files (%d scanned, %d unchanged) in %s", p.Indexed, p.Scanned, p.Skipped, p.Duration.Round(time.Millisecond)),
		Payload:    mustJSON(p),
	}
}
