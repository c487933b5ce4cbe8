package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ErrUndecodable indicates the input could not be decoded as an image.
var ErrUndecodable = errors.New("image could not be decoded")

const (
	// MaxBytes is the soft output-size cap in bytes.
	MaxBytes = 1024 * 1024
	// MaxDimension is the cap on the longer side in pixels.
	MaxDimension = 1080

	startQuality = 90
	floorQuality = 40
	qualityStep  = 10
)

// Result holds the normalized JPEG and the parameters it was produced with.
type Result struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
}

// WithinBudget reports whether the encoded size honors the byte cap. A result
// over budget is still valid once quality has reached the floor.
func (r Result) WithinBudget() bool {
	return len(r.Data) <= MaxBytes
}

// Normalize decodes an arbitrary input image, scales it so the longer side is
// at most MaxDimension, and re-encodes it as JPEG, walking quality down from
// 90 by 10 until the output fits MaxBytes or quality reaches 40. The floor
// result is accepted even when over budget; the size cap is best effort.
func Normalize(reader io.Reader) (Result, error) {
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	img = scaleDown(img)
	bounds := img.Bounds()

	quality := startQuality
	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return Result{}, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		if buf.Len() <= MaxBytes || quality <= floorQuality {
			break
		}
		quality -= qualityStep
	}

	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())

	return Result{
		Data:    data,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Quality: quality,
	}, nil
}

func scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= MaxDimension && height <= MaxDimension {
		return img
	}

	if width >= height {
		return imaging.Resize(img, MaxDimension, 0, imaging.Linear)
	}
	return imaging.Resize(img, 0, MaxDimension, imaging.Linear)
}
