package paper

import (
	"fmt"
	"image"
	"os"
	"strings"

	// Decoders for the common formats found in documents.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/muesli/termenv"
	"golang.org/x/image/draw"
)

// ImageDecoder loads an image referenced by a document.
type ImageDecoder interface {
	Decode(path string) (image.Image, error)
}

// FileDecoder reads images from the local filesystem using the
// registered stdlib decoders.
type FileDecoder struct{}

func (FileDecoder) Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// PixelRenderer converts pixel data to terminal-printable lines.
// Width and height are in pixels; one terminal cell covers one pixel
// horizontally and two vertically.
type PixelRenderer interface {
	Render(img image.Image, width, height int) []string
}

// HalfBlockRenderer draws pixels with the upper-half-block glyph: the
// foreground color carries the top pixel of each cell, the background
// the bottom one.
type HalfBlockRenderer struct {
	Profile termenv.Profile
}

func (r HalfBlockRenderer) Render(img image.Image, width, height int) []string {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	lines := make([]string, 0, (height+1)/2)
	for y := 0; y < height; y += 2 {
		var b strings.Builder
		for x := 0; x < width; x++ {
			top := r.Profile.FromColor(scaled.At(x, y))
			params := top.Sequence(false)
			if y+1 < height {
				params += ";" + r.Profile.FromColor(scaled.At(x, y+1)).Sequence(true)
			}
			b.WriteString("\x1b[" + params + "m▀")
		}
		b.WriteString(ansiReset)
		lines = append(lines, b.String())
	}
	return lines
}
