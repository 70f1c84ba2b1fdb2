package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"

	"github.com/ecoscan/recyclelens/internal/utils"
)

// FileCamera is a Camera backed by an image file. It stands in for a live
// device in CLI and test environments: each Open produces a fresh stream
// whose single frame is the decoded file.
type FileCamera struct {
	Path string
}

// Open decodes the backing file and returns a one-frame stream.
func (c *FileCamera) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utils.IsImageFile(c.Path) {
		return nil, fmt.Errorf("not an image file: %s", c.Path)
	}

	img, err := loadImage(c.Path)
	if err != nil {
		return nil, err
	}
	return &fileStream{img: img}, nil
}

type fileStream struct {
	img    image.Image
	closed bool
}

func (s *fileStream) Frame() (image.Image, error) {
	if s.closed {
		return nil, fmt.Errorf("stream closed")
	}
	return s.img, nil
}

func (s *fileStream) Close() error {
	s.closed = true
	return nil
}

// loadImage decodes jpg/png/webp files, trying the WebP decoder when the
// extension suggests it and the standard decoders otherwise.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("image: unknown format for %s", path)
	}
	return img, nil
}
