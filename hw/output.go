package hw

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Frame is a VideoSink that keeps the last frame presented by the PPU. It's
// written by the emulation goroutine and can be read concurrently by the
// display.
type Frame struct {
	back [ScreenWidth * ScreenHeight]uint8
	pos  int

	mu    sync.Mutex
	front [ScreenWidth * ScreenHeight]uint8
	count int64

	paused atomic.Bool
}

func NewFrame() *Frame {
	return &Frame{}
}

// Ready reports whether the frame accepts pixels.
func (f *Frame) Ready() bool {
	return !f.paused.Load()
}

// SetPaused stops (or restarts) the reception of frames, from the next one.
func (f *Frame) SetPaused(paused bool) {
	f.paused.Store(paused)
}

func (f *Frame) EmitPixel(color uint8) {
	if f.pos < len(f.back) {
		f.back[f.pos] = color
		f.pos++
	}
}

func (f *Frame) PresentFrame() {
	f.mu.Lock()
	f.front = f.back
	f.count++
	f.mu.Unlock()
	f.pos = 0
}

// Count returns the number of frames presented so far.
func (f *Frame) Count() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Pixels copies the color indexes of the last presented frame into dst, and
// returns the frame number.
func (f *Frame) Pixels(dst *[ScreenWidth * ScreenHeight]uint8) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	*dst = f.front
	return f.count
}

// RGBA draws the last presented frame into img, which must be at least
// ScreenWidth x ScreenHeight.
func (f *Frame) RGBA(img *image.RGBA) {
	var pix [ScreenWidth * ScreenHeight]uint8
	f.Pixels(&pix)

	for y := range ScreenHeight {
		row := img.Pix[y*img.Stride:]
		for x := range ScreenWidth {
			c := Palette[pix[y*ScreenWidth+x]&0x3F]
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}
	}
}

// Image returns the last presented frame as an image, scaled by the given
// factor.
func (f *Frame) Image(scale int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	f.RGBA(img)
	if scale <= 1 {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, ScreenWidth*scale, ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// SaveAsPNG writes the last presented frame to a PNG file.
func (f *Frame) SaveAsPNG(path string, scale int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := png.Encode(out, f.Image(scale)); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return out.Close()
}
