// Package events delivers tournament state changes to subscribers after the owning
// transaction has committed.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

type Type string

const (
	TournamentStarted   Type = "TOURNAMENT_STARTED"
	MatchFinished       Type = "MATCH_FINISHED"
	RoundCreated        Type = "ROUND_CREATED"
	TournamentFinished  Type = "TOURNAMENT_FINISHED"
	TournamentCancelled Type = "TOURNAMENT_CANCELLED"
)

type Event struct {
	Type         Type        `json:"type"`
	TournamentID int64       `json:"tournament_id"`
	Payload      interface{} `json:"payload,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// Publisher is implemented by every delivery channel (websocket rooms, NATS, archive).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Nop drops every event.
var Nop Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

type fanout struct {
	publishers []Publisher
}

// Fanout publishes each event to all publishers concurrently. A failing publisher does not
// stop the others; the returned error joins every failure.
func Fanout(publishers ...Publisher) Publisher {
	active := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			active = append(active, p)
		}
	}
	return &fanout{publishers: active}
}

func (f *fanout) Publish(ctx context.Context, event Event) error {
	errs := make([]error, len(f.publishers))
	// A failed channel never cancels delivery to the others.
	var g errgroup.Group
	for i, p := range f.publishers {
		g.Go(func() error {
			if err := p.Publish(ctx, event); err != nil {
				errs[i] = fmt.Errorf("publisher %d: %w", i, err)
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}
	return nil
}
