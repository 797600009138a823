package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

func TestToStickerRejectsUnsupportedInput(t *testing.T) {
	tests := []struct {
		name     string
		mimetype string
	}{
		{"document", "application/pdf"},
		{"audio", "audio/ogg"},
		{"text", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Media{Mimetype: tt.mimetype, Data: []byte("payload")}
			_, err := ToSticker(context.Background(), m, "ffmpeg", StickerOptions{})
			if !errors.Is(err, ErrStickerConversion) {
				t.Errorf("ToSticker(%s) error = %v, want ErrStickerConversion", tt.mimetype, err)
			}
		})
	}
}

func TestToStickerMissingConverter(t *testing.T) {
	m := &Media{Mimetype: "image/png", Data: []byte("not-a-real-png")}
	_, err := ToSticker(context.Background(), m, "/nonexistent/ffmpeg", StickerOptions{})
	if !errors.Is(err, ErrStickerConversion) {
		t.Errorf("error = %v, want ErrStickerConversion", err)
	}
}

func fakeWebp() []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(4+8+2)) // WEBP + one chunk
	buf.WriteString("WEBP")
	buf.WriteString("VP8 ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(2))
	buf.Write([]byte{0xAA, 0xBB})
	return buf.Bytes()
}

func TestAppendRIFFChunk(t *testing.T) {
	original := fakeWebp()
	payload := []byte{1, 2, 3} // odd length forces the pad byte

	out, err := appendRIFFChunk(original, "EXIF", payload)
	if err != nil {
		t.Fatalf("appendRIFFChunk: %v", err)
	}

	if !bytes.Equal(out[:len(original)], original[:4]) && !bytes.Equal(out[8:12], []byte("WEBP")) {
		t.Error("container header corrupted")
	}
	idx := bytes.Index(out, []byte("EXIF"))
	if idx < 0 {
		t.Fatal("EXIF chunk not appended")
	}
	size := binary.LittleEndian.Uint32(out[idx+4 : idx+8])
	if size != uint32(len(payload)) {
		t.Errorf("chunk size = %d, want %d", size, len(payload))
	}
	if len(out)%2 != 0 {
		t.Error("output not word-aligned")
	}
	riffSize := binary.LittleEndian.Uint32(out[4:8])
	if int(riffSize) != len(out)-8 {
		t.Errorf("RIFF size = %d, want %d", riffSize, len(out)-8)
	}
}

func TestAppendRIFFChunkRejectsNonWebp(t *testing.T) {
	_, err := appendRIFFChunk([]byte("JFIFxxxxxxxx"), "EXIF", []byte{1})
	if err == nil {
		t.Error("expected error for non-RIFF input")
	}
}

func TestBuildExifPayload(t *testing.T) {
	data, err := buildExifPayload(stickerExif{PackName: "pack", Publisher: "author"})
	if err != nil {
		t.Fatalf("buildExifPayload: %v", err)
	}
	// Little-endian TIFF header.
	if !bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}) {
		t.Error("missing TIFF little-endian header")
	}
	if !bytes.Contains(data, []byte("sticker-pack-publisher")) {
		t.Error("metadata JSON not embedded")
	}
}

func TestMediaBase64RoundTrip(t *testing.T) {
	m := &Media{Mimetype: "image/png", Data: []byte{0, 1, 2, 250}}
	back, err := FromBase64(m.Mimetype, m.Base64(), "f.png")
	if err != nil {
		t.Fatalf("FromBase64: %v", err)
	}
	if !bytes.Equal(back.Data, m.Data) {
		t.Error("base64 round trip lost data")
	}
	if back.Filesize != int64(len(m.Data)) {
		t.Errorf("Filesize = %d, want %d", back.Filesize, len(m.Data))
	}
}
