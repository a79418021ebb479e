// Package canvas holds the output bitmap the tiles are composited into.
package canvas

import (
	"fmt"
	"image"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// ErrOutOfBounds the tile does not fit into its grid cell
var ErrOutOfBounds = errors.New("canvas: tile out of bounds")

// Canvas a columns x rows grid of equally sized cells. Every tile owns a disjoint cell, writes
// are serialized by one lock around the whole buffer.
type Canvas struct {
	mu         sync.Mutex
	img        *image.RGBA
	columns    int
	rows       int
	tileWidth  int
	tileHeight int
}

// New allocates a canvas of columns*tileWidth x rows*tileHeight pixels
func New(columns, rows, tileWidth, tileHeight int) (*Canvas, error) {
	if columns < 1 || rows < 1 || tileWidth < 1 || tileHeight < 1 {
		return nil, fmt.Errorf("invalid canvas geometry %dx%d tiles of %dx%d", columns, rows, tileWidth, tileHeight)
	}
	return &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, columns*tileWidth, rows*tileHeight)),
		columns:    columns,
		rows:       rows,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
	}, nil
}

// Place copies the tile into the cell (x, y) at pixel offset (x*tileWidth, y*tileHeight).
// Tiles smaller than the cell are allowed (image borders), larger ones are rejected.
func (c *Canvas) Place(x, y int, tile image.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if x < 0 || x >= c.columns || y < 0 || y >= c.rows {
		return errors.Wrapf(ErrOutOfBounds, "cell (%d,%d) outside %dx%d grid", x, y, c.columns, c.rows)
	}
	b := tile.Bounds()
	if b.Dx() > c.tileWidth || b.Dy() > c.tileHeight {
		return errors.Wrapf(ErrOutOfBounds, "tile (%d,%d) is %dx%d, cell is %dx%d", x, y, b.Dx(), b.Dy(), c.tileWidth, c.tileHeight)
	}
	dp := image.Pt(x*c.tileWidth, y*c.tileHeight)
	draw.Draw(c.img, image.Rectangle{Min: dp, Max: dp.Add(b.Size())}, tile, b.Min, draw.Src)
	return nil
}

// Bounds the pixel bounds of the canvas
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Image the composited bitmap. It must not be used while tiles are still placed.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img
}
