package outbox_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/boost-backend/pkg/auth"
	"github.com/angelmondragon/boost-backend/pkg/enums"
	"github.com/angelmondragon/boost-backend/pkg/outbox"
)

func TestActorFromCallerCopiesMerchant(t *testing.T) {
	merchantID := uuid.New()
	caller := auth.Caller{UID: "staff-1", Role: enums.RoleStaff, MerchantID: &merchantID}

	actor := outbox.ActorFromCaller(caller)
	if actor.UserID != "staff-1" || actor.Role != "staff" {
		t.Fatalf("unexpected actor %#v", actor)
	}
	if actor.MerchantID == nil || *actor.MerchantID != merchantID {
		t.Fatalf("expected merchant %s, got %v", merchantID, actor.MerchantID)
	}
	if actor.MerchantID == caller.MerchantID {
		t.Fatal("actor must not alias the caller's merchant pointer")
	}
}

func TestActorFromCallerOwnerHasNoMerchant(t *testing.T) {
	actor := outbox.ActorFromCaller(auth.Caller{UID: "owner-uid", Role: enums.RoleOwner})
	if actor.MerchantID != nil {
		t.Fatalf("expected no merchant, got %v", actor.MerchantID)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	raw := []byte(`{"version":1,"eventId":"e-1","occurredAt":"2026-01-02T03:04:05Z","data":{"merchantId":"m"}}`)
	env, err := outbox.DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.EventID != "e-1" || env.Version != 1 || string(env.Data) != `{"merchantId":"m"}` {
		t.Fatalf("unexpected envelope %#v", env)
	}
}

func TestDecodeEnvelopeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"zero version":   `{"version":0,"eventId":"e","data":{}}`,
		"future version": `{"version":99,"eventId":"e","data":{}}`,
		"missing id":     `{"version":1,"data":{}}`,
		"missing data":   `{"version":1,"eventId":"e"}`,
		"null data":      `{"version":1,"eventId":"e","data":null}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := outbox.DecodeEnvelope([]byte(raw))
			if !errors.Is(err, outbox.ErrMalformedEnvelope) {
				t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
			}
		})
	}
}
