package qr

import (
	"bytes"
	"testing"
)

func TestPNGRendererProducesPNG(t *testing.T) {
	png, err := NewPNGRenderer(0).PNG("https://boost.example/r/7d9f0c1e-2f4a-4e55-9a7b-0d6f6a9b1c2d")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("expected PNG signature")
	}
}

func TestPNGRendererRejectsEmptyPayload(t *testing.T) {
	if _, err := NewPNGRenderer(128).PNG(""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
