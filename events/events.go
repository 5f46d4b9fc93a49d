package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"b0ase/config"

	"github.com/segmentio/kafka-go"
)

type Type string

const (
	ProjectCreated        Type = "project.created"
	ProjectStatusChanged  Type = "project.status_changed"
	MembershipInvited     Type = "membership.invited"
	MembershipAccepted    Type = "membership.accepted"
	MembershipApproved    Type = "membership.approved"
	MembershipRejected    Type = "membership.rejected"
	GigPublished          Type = "gig.published"
	TeamCreated           Type = "team.created"
	TeamMemberJoined      Type = "team.member_joined"
	TokenMintRequested    Type = "token.mint_requested"
	ClientRequestApproved Type = "client_request.approved"
)

// Event is a domain fact published after the row that records it is saved.
type Event struct {
	Type        Type           `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	ActorID     uint           `json:"actor_id,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

func New(t Type, aggregateID, actorID uint, data map[string]any) Event {
	return Event{
		Type:        t,
		AggregateID: strconv.FormatUint(uint64(aggregateID), 10),
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaPublisher{writer: w}
}

// Publish writes e keyed by its aggregate so events for one row stay ordered
// on a single partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
