package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrStickerConversion marks a failure of the sticker formatting step.
// The send pipeline aborts before any remote submission when it occurs.
var ErrStickerConversion = errors.New("media: sticker conversion failed")

// StickerOptions carries the metadata embedded into a formatted sticker.
type StickerOptions struct {
	Author     string
	Name       string
	Categories []string
	IsAvatar   bool
}

// ToSticker converts an image or video attachment into a sticker-compatible
// webp payload using the external ffmpeg converter, then embeds the sticker
// metadata. Unsupported input types and a missing converter both surface as
// ErrStickerConversion.
func ToSticker(ctx context.Context, m *Media, ffmpegPath string, opts StickerOptions) (*Media, error) {
	if !m.IsImage() && !m.IsVideo() {
		return nil, fmt.Errorf("%w: unsupported input type %s", ErrStickerConversion, m.Mimetype)
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	out, err := convertToWebp(ctx, m, ffmpegPath)
	if err != nil {
		return nil, err
	}

	if opts.Author != "" || opts.Name != "" || len(opts.Categories) > 0 {
		out, err = embedStickerMetadata(out, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStickerConversion, err)
		}
	}

	return &Media{
		Mimetype: "image/webp",
		Data:     out,
		Filename: "sticker.webp",
		Filesize: int64(len(out)),
	}, nil
}

func convertToWebp(ctx context.Context, m *Media, ffmpegPath string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "wweb-sticker-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStickerConversion, err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "in"+extensionFor(m))
	outPath := filepath.Join(dir, "out.webp")
	if err := os.WriteFile(in, m.Data, 0600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStickerConversion, err)
	}

	args := []string{"-y", "-i", in}
	if m.IsVideo() {
		// Animated stickers are capped at 5 seconds and 10 fps.
		args = append(args, "-t", "5", "-r", "10")
	}
	args = append(args,
		"-vcodec", "libwebp",
		"-vf", "scale=512:512:force_original_aspect_ratio=decrease,pad=512:512:-1:-1:color=0x00000000",
		"-qscale", "80",
		"-loop", "0",
		"-an",
		outPath,
	)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: converter: %v (%s)", ErrStickerConversion, err, firstLine(stderr.String()))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStickerConversion, err)
	}
	return out, nil
}

func extensionFor(m *Media) string {
	switch m.Mimetype {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		if m.IsVideo() {
			return ".mp4"
		}
		return ".jpg"
	}
}

func firstLine(s string) string {
	if i := bytes.IndexByte([]byte(s), '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// stickerExif is the JSON metadata block the client reads from a sticker's
// EXIF chunk.
type stickerExif struct {
	PackID    string   `json:"sticker-pack-id"`
	PackName  string   `json:"sticker-pack-name"`
	Publisher string   `json:"sticker-pack-publisher"`
	Emojis    []string `json:"emojis,omitempty"`
	IsAvatar  bool     `json:"is-avatar-sticker,omitempty"`
}

// embedStickerMetadata writes the sticker metadata into a webp EXIF chunk,
// rewriting the RIFF container as an extended (VP8X) file when necessary.
func embedStickerMetadata(webp []byte, opts StickerOptions) ([]byte, error) {
	exif, err := buildExifPayload(stickerExif{
		PackID:    "github.com/wwebgo/wweb",
		PackName:  opts.Name,
		Publisher: opts.Author,
		Emojis:    opts.Categories,
		IsAvatar:  opts.IsAvatar,
	})
	if err != nil {
		return nil, err
	}
	return appendRIFFChunk(webp, "EXIF", exif)
}

// buildExifPayload constructs a minimal little-endian TIFF structure with a
// single undefined-type tag (0x5741) holding the JSON metadata.
func buildExifPayload(meta stickerExif) ([]byte, error) {
	jsonData, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	// TIFF header: little-endian marker, magic 42, IFD offset 8.
	buf.Write([]byte{0x49, 0x49, 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00})
	// One IFD entry.
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0x5741)) // tag
	_ = binary.Write(&buf, binary.LittleEndian, uint16(7))      // type: undefined
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(jsonData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(buf.Len()+8)) // value offset
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))           // next IFD
	buf.Write(jsonData)
	return buf.Bytes(), nil
}

// appendRIFFChunk appends a chunk to a RIFF/WEBP container and fixes up the
// RIFF size field.
func appendRIFFChunk(container []byte, fourCC string, payload []byte) ([]byte, error) {
	if len(container) < 12 || string(container[0:4]) != "RIFF" || string(container[8:12]) != "WEBP" {
		return nil, errors.New("not a RIFF/WEBP container")
	}

	var out bytes.Buffer
	out.Write(container)
	out.WriteString(fourCC)
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(payload)))
	out.Write(payload)
	if len(payload)%2 == 1 {
		out.WriteByte(0) // RIFF chunks are word-aligned
	}

	result := out.Bytes()
	binary.LittleEndian.PutUint32(result[4:8], uint32(len(result)-8))
	return result, nil
}
