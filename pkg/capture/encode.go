package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// encodeFrame converts a raw video frame into an immutable base64 payload.
// Frames larger than cfg.MaxEdge on their long side are downscaled first so
// the payload stays within what vision models accept.
func encodeFrame(img image.Image, cfg EncodeConfig) (*Frame, error) {
	if cfg.MaxEdge > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > cfg.MaxEdge || h > cfg.MaxEdge {
			if w >= h {
				img = imaging.Resize(img, cfg.MaxEdge, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, cfg.MaxEdge, imaging.Lanczos)
			}
		}
	}

	quality := cfg.Quality
	if quality < 1 || quality > 100 {
		quality = 85
	}

	var buf bytes.Buffer
	var mimeType string
	switch strings.ToLower(cfg.Format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
		mimeType = "image/png"
	case "webp":
		opts := &webp.Options{Lossless: cfg.Lossless, Quality: float32(quality)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, err
		}
		mimeType = "image/webp"
	case "", "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
		mimeType = "image/jpeg"
	default:
		return nil, fmt.Errorf("unsupported frame format: %s", cfg.Format)
	}

	bounds := img.Bounds()
	return &Frame{
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		MIMEType: mimeType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}

// DecodeFrameData decodes a Frame's base64 payload back into raw bytes.
func DecodeFrameData(f *Frame) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame payload: %w", err)
	}
	return data, nil
}
