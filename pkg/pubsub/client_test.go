package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/boost-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"boost-prod", "boost-domain-events", "projects/boost-prod/topics/boost-domain-events"},
		{"boost-prod", " projects/other/topics/x ", "projects/other/topics/x"},
		{"", "boost-domain-events", ""},
		{"boost-prod", "  ", ""},
	}
	for _, tc := range cases {
		if got := TopicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("TopicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DomainTopic: "t"}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected errProjectIDRequired, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatal("expected nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for nil client")
	}
}

func TestSendWithoutTopicIsNotConfigured(t *testing.T) {
	c := &Client{projectID: "boost-dev"}
	err := c.Send(context.Background(), "boost-domain-events", nil)
	if !errors.Is(err, ErrTopicNotConfigured) {
		t.Fatalf("expected ErrTopicNotConfigured, got %v", err)
	}
}
