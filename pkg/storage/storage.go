package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Category partitions stored objects by what produced them.
type Category string

const (
	CategoryShipmentAttachment Category = "shipment-attachments"
	CategorySignature          Category = "signatures"
	CategoryProofPhoto         Category = "proof-photos"
	CategoryDeliveryNote       Category = "delivery-notes"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryShipmentAttachment, CategorySignature, CategoryProofPhoto, CategoryDeliveryNote:
		return true
	}
	return false
}

// Store persists binary blobs and resolves them to client-facing URLs.
type Store interface {
	Save(ctx context.Context, category Category, name string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Ping(ctx context.Context) error
}

var dataURLExtensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// DecodeDataURL splits a base64 data URL into raw bytes and a file extension.
func DecodeDataURL(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, "", fmt.Errorf("not a data url")
	}
	rest := strings.TrimPrefix(s, "data:")
	idx := strings.Index(rest, ",")
	if idx < 0 {
		return nil, "", fmt.Errorf("malformed data url: missing comma")
	}
	meta, payload := rest[:idx], rest[idx+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("unsupported data url encoding %q", meta)
	}
	mimeType := strings.TrimSuffix(meta, ";base64")
	ext, ok := dataURLExtensions[mimeType]
	if !ok {
		return nil, "", fmt.Errorf("unsupported media type %q", mimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data url payload: %w", err)
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("data url payload is empty")
	}
	return raw, ext, nil
}
