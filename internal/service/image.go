package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// Image is a decoded photo payload ready for upload.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

var errEmptyImage = errors.New("image is empty")

// DecodeImagePayload decodes a base64 photo (optionally a data: URL) and checks that it is
// a JPEG, PNG, GIF or WebP image no larger than maxBytes. maxBytes <= 0 disables the limit.
func DecodeImagePayload(payload string, maxBytes int) (Image, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx != -1 {
			payload = payload[idx+1:]
		}
	}
	if payload == "" {
		return Image{}, fail(ErrValidation, "decode image", errEmptyImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return Image{}, fail(ErrValidation, "decode image", fmt.Errorf("invalid base64: %w", err))
		}
	}
	return NewImage(data, maxBytes)
}

// NewImage checks that raw bytes are a JPEG, PNG, GIF or WebP image no larger than maxBytes.
func NewImage(data []byte, maxBytes int) (Image, error) {
	if len(data) == 0 {
		return Image{}, fail(ErrValidation, "decode image", errEmptyImage)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return Image{}, fail(ErrValidation, "decode image", fmt.Errorf("image is %d bytes, limit is %d", len(data), maxBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fail(ErrValidation, "decode image", fmt.Errorf("unsupported image: %w", err))
	}

	return Image{
		Data:        data,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
