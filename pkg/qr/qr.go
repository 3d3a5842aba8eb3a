// Package qr renders token payloads as PNG images.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 512

// Renderer turns a payload string into an image.
type Renderer interface {
	PNG(payload string) ([]byte, error)
}

// PNGRenderer renders square PNGs at medium error correction.
type PNGRenderer struct {
	Size int
}

func NewPNGRenderer(size int) *PNGRenderer {
	if size <= 0 {
		size = defaultSize
	}
	return &PNGRenderer{Size: size}
}

func (r *PNGRenderer) PNG(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("qr payload is required")
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, r.Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
