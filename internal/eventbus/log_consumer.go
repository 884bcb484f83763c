package eventbus

import (
	"context"
	"log"

	"github.com/matthewbaird/mdb/internal/event"
)

// LogConsumer logs every index event.
type LogConsumer struct {
	// Verbose also logs per-document events; otherwise only scan summaries
	// and removals are logged.
	Verbose bool
}

func NewLogConsumer(verbose bool) *LogConsumer { return &LogConsumer{Verbose: verbose} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.IndexEvent) error {
	if evt.EventType == event.TypeDocumentIndexed && !c.Verbose {
		return nil
	}
	log.Printf("event: %s %s", evt.EventType, evt.Summary)
	return nil
}
