package domain

import (
	"encoding/json"
	"fmt"
)

// EventKind is the wire discriminator of a change event.
type EventKind string

const (
	EventNewFeedback     EventKind = "new_feedback"
	EventPortfolioSynced EventKind = "portfolio_synced"
	EventClientCreated   EventKind = "client_created"
)

// ChangeEvent is a record of a committed data change, routed to the owning
// advisor's dashboard connections. The set of kinds is closed; consumers
// switch exhaustively over the concrete types.
type ChangeEvent interface {
	Kind() EventKind
	Advisor() int64
}

// NewFeedbackEvent signals that a piece of feedback was committed.
type NewFeedbackEvent struct {
	AdvisorID  int64
	FeedbackID int64
	ClientID   int64
	Sentiment  string
	Urgency    int
	Topics     []string
}

func (e NewFeedbackEvent) Kind() EventKind { return EventNewFeedback }
func (e NewFeedbackEvent) Advisor() int64  { return e.AdvisorID }

// PortfolioSyncedEvent signals that a client's portfolio snapshot was
// replaced by a partner sync.
type PortfolioSyncedEvent struct {
	AdvisorID int64
	ClientID  int64
}

func (e PortfolioSyncedEvent) Kind() EventKind { return EventPortfolioSynced }
func (e PortfolioSyncedEvent) Advisor() int64  { return e.AdvisorID }

// ClientCreatedEvent signals that a new client record was committed.
type ClientCreatedEvent struct {
	AdvisorID int64
	ClientID  int64
	Name      string
}

func (e ClientCreatedEvent) Kind() EventKind { return EventClientCreated }
func (e ClientCreatedEvent) Advisor() int64  { return e.AdvisorID }

// EncodeEvent serializes an event to its wire JSON. The advisor ID routes
// the message and is not part of the payload.
func EncodeEvent(event ChangeEvent) ([]byte, error) {
	switch e := event.(type) {
	case NewFeedbackEvent:
		return json.Marshal(struct {
			Type       EventKind `json:"type"`
			FeedbackID int64     `json:"feedback_id"`
			ClientID   int64     `json:"client_id"`
			Sentiment  string    `json:"sentiment"`
			Urgency    int       `json:"urgency"`
			Topics     []string  `json:"topics"`
		}{EventNewFeedback, e.FeedbackID, e.ClientID, e.Sentiment, e.Urgency, e.Topics})
	case PortfolioSyncedEvent:
		return json.Marshal(struct {
			Type     EventKind `json:"type"`
			ClientID int64     `json:"client_id"`
		}{EventPortfolioSynced, e.ClientID})
	case ClientCreatedEvent:
		return json.Marshal(struct {
			Type     EventKind `json:"type"`
			ClientID int64     `json:"client_id"`
			Name     string    `json:"name"`
		}{EventClientCreated, e.ClientID, e.Name})
	default:
		return nil, fmt.Errorf("unknown event type %T", event)
	}
}
