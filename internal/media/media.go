// Package media handles media payloads crossing the automation boundary
// and the sticker formatting step delegated to an external converter.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Media is a media attachment: raw bytes plus transport metadata. It is the
// content type recognized by the send pipeline.
type Media struct {
	Mimetype string
	Data     []byte
	Filename string
	Filesize int64
}

// FromFile loads a media attachment from disk, deriving the mimetype from
// the file extension.
func FromFile(path string) (*Media, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("media: read %s: %w", path, err)
	}
	name := filepath.Base(path)
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = "application/octet-stream"
	}
	return &Media{
		Mimetype: mt,
		Data:     data,
		Filename: name,
		Filesize: int64(len(data)),
	}, nil
}

// FromBase64 builds a media attachment from a base64 payload, the form in
// which media crosses the boundary.
func FromBase64(mimetype, b64, filename string) (*Media, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("media: decode base64 payload: %w", err)
	}
	return &Media{
		Mimetype: mimetype,
		Data:     data,
		Filename: filename,
		Filesize: int64(len(data)),
	}, nil
}

// Base64 returns the payload encoded for boundary transfer.
func (m *Media) Base64() string {
	return base64.StdEncoding.EncodeToString(m.Data)
}

// IsImage reports whether the payload is an image.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.Mimetype, "image/")
}

// IsVideo reports whether the payload is a video.
func (m *Media) IsVideo() bool {
	return strings.HasPrefix(m.Mimetype, "video/")
}

// IsAudio reports whether the payload is audio.
func (m *Media) IsAudio() bool {
	return strings.HasPrefix(m.Mimetype, "audio/")
}
