// Package imaging normalizes uploaded avatar images.
package imaging

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"

	"task_backend/internal/shared/apperr"
)

const (
	// MaxUploadBytes is the largest accepted upload.
	MaxUploadBytes = 1_000_000
	// AvatarSize is the edge length of every stored avatar.
	AvatarSize = 250
	// MaxPixels bounds the declared dimensions of an upload before it is decoded.
	MaxPixels = 4096 * 4096
)

// Error texts are returned to the client unchanged.
var (
	ErrFileTooLarge    = errors.New("File too large")
	ErrUnsupportedType = errors.New("Image type must be jpg, jpeg, or png")
	ErrUndecodable     = errors.New("image could not be decoded")
	ErrTooManyPixels   = errors.New("Image dimensions too large")
)

var (
	allowedExtension = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)
	allowedMIMETypes = []string{"image/jpeg", "image/png"}
)

// AvatarProcessor validates uploads and converts them to square PNGs.
type AvatarProcessor struct {
	size      int
	maxBytes  int
	maxPixels int
}

// NewAvatarProcessor returns a processor producing AvatarSize x AvatarSize PNGs.
func NewAvatarProcessor() *AvatarProcessor {
	return &AvatarProcessor{size: AvatarSize, maxBytes: MaxUploadBytes, maxPixels: MaxPixels}
}

// Process checks size, extension, content type and declared dimensions of an upload, then scales
// and center-crops it to cover the target square and encodes it as PNG.
// Rejections are plain errors; an encoding failure is an apperr storage error.
func (p *AvatarProcessor) Process(filename string, data []byte) ([]byte, error) {
	if len(data) > p.maxBytes {
		return nil, ErrFileTooLarge
	}
	if !allowedExtension.MatchString(filename) {
		return nil, ErrUnsupportedType
	}
	if mime := mimetype.Detect(data); !mimetype.EqualsAny(mime.String(), allowedMIMETypes...) {
		return nil, ErrUnsupportedType
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > p.maxPixels/cfg.Height {
		return nil, ErrTooManyPixels
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.size, p.size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), p.size, p.size), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, apperr.Storage("encode avatar", err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the centered part of b with the aspect ratio w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	bw, bh := b.Dx(), b.Dy()
	if bw*h > bh*w {
		cw := bh * w / h
		x0 := b.Min.X + (bw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := bw * h / w
	y0 := b.Min.Y + (bh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}
