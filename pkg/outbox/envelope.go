package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/auth"
)

// CurrentVersion is the envelope version written by Emit. Readers accept
// every version from 1 up to it.
const CurrentVersion = 1

var ErrMalformedEnvelope = errors.New("malformed outbox envelope")

type ActorRef struct {
	UserID     string     `json:"userId"`
	MerchantID *uuid.UUID `json:"merchantId,omitempty"`
	Role       string     `json:"role,omitempty"`
}

func ActorFromCaller(c auth.Caller) *ActorRef {
	ref := &ActorRef{UserID: c.UID, Role: c.Role.String()}
	if c.MerchantID != nil {
		id := *c.MerchantID
		ref.MerchantID = &id
	}
	return ref
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and forwarded
// verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses and checks a stored payload. Every failure wraps
// ErrMalformedEnvelope.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	switch {
	case env.Version < 1 || env.Version > CurrentVersion:
		return env, fmt.Errorf("%w: unsupported version %d", ErrMalformedEnvelope, env.Version)
	case env.EventID == "":
		return env, fmt.Errorf("%w: missing eventId", ErrMalformedEnvelope)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env, fmt.Errorf("%w: missing data", ErrMalformedEnvelope)
	}
	return env, nil
}
