package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fineshyttt/commerce-backend/pkg/enums"
)

// ActorRef identifies who produced the event. UserID is nil for system actors.
type ActorRef struct {
	UserID *uuid.UUID `json:"userId,omitempty"`
	Role   string     `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and published
// verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version     int                   `json:"version"`
	EventID     string                `json:"eventId"`
	EventType   enums.OutboxEventType `json:"eventType"`
	AggregateID uuid.UUID             `json:"aggregateId"`
	OccurredAt  time.Time             `json:"occurredAt"`
	Actor       *ActorRef             `json:"actor,omitempty"`
	Data        json.RawMessage       `json:"data"`
}

// ParseEnvelope decodes a stored payload. Any error means the row can never
// be published as is.
func ParseEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	switch {
	case env.EventID == "":
		return env, errors.New("envelope missing event id")
	case env.Version < 1 || env.Version > currentVersion:
		return env, fmt.Errorf("unsupported envelope version %d", env.Version)
	case !env.EventType.IsValid():
		return env, fmt.Errorf("unknown event type %q", env.EventType)
	}
	return env, nil
}
