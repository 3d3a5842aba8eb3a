package cron

import (
	"context"
	"testing"
	"time"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubJob{name: "token_expiry"}, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(&stubJob{name: "outbox_retention"}, time.Hour); err != nil {
		t.Fatalf("register: %v", err)
	}

	entries := registry.Entries()
	if len(entries) != 2 || entries[1].Every != time.Hour {
		t.Fatalf("unexpected entries %+v", entries)
	}
	entries[0].Job = nil
	if registry.Entries()[0].Job == nil {
		t.Fatalf("internal slice leaked")
	}
	if names := registry.Names(); names[0] != "token_expiry" || names[1] != "outbox_retention" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistryRejectsDuplicatesAndBlanks(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubJob{name: "token_expiry"}, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(&stubJob{name: "token_expiry"}, time.Minute); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if err := registry.Register(&stubJob{}, 0); err == nil {
		t.Fatalf("expected blank name error")
	}
	if err := registry.Register(nil, 0); err == nil {
		t.Fatalf("expected nil job error")
	}
	if len(registry.Entries()) != 1 {
		t.Fatalf("rejected jobs must not be stored")
	}
}
