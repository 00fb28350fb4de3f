package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

const SubjectPrefix = "tournaments"

type natsConn interface {
	Publish(subj string, data []byte) error
}

type NATSPublisher struct {
	conn natsConn
}

func NewNATSPublisher(conn natsConn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// ConnectNATS dials the server and returns the connection together with a publisher over it.
func ConnectNATS(url string) (*nats.Conn, *NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("robot-tournaments"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, NewNATSPublisher(nc), nil
}

// Subject is tournaments.<id>.<type>, e.g. tournaments.42.match_finished.
func Subject(event Event) string {
	return fmt.Sprintf("%s.%d.%s", SubjectPrefix, event.TournamentID, strings.ToLower(string(event.Type)))
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event for tournament %d: %w", event.Type, event.TournamentID, err)
	}
	if err := p.conn.Publish(Subject(event), messageBytes); err != nil {
		return fmt.Errorf("failed to publish %s event to NATS: %w", event.Type, err)
	}
	return nil
}
