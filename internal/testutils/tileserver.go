// Package testutils provides a fixture tile server for tests.
package testutils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/willie68/go_tilerip/internal/address"
)

// Cell a grid cell of the fixture
type Cell struct {
	X, Y int
}

// TileServer serves a deterministic tile pyramid at <url>/img=x<col>-y<row>-z<zoom>. Zoom
// level z has Columns+z columns and Rows+z rows, all tiles are TileSize square PNGs.
type TileServer struct {
	Server   *httptest.Server
	Columns  int
	Rows     int
	MaxZoom  int
	TileSize int

	mu      sync.Mutex
	broken  map[Cell]bool
	faulty  map[Cell]bool
	corrupt map[Cell]bool
	denied  map[Cell]bool
	gets    atomic.Int64
	heads   atomic.Int64
	page    string
	encoded map[string][]byte
}

// NewTileServer starts the server, it is closed with the test
func NewTileServer(t testing.TB, columns, rows, maxZoom, tileSize int) *TileServer {
	ts := &TileServer{
		Columns:  columns,
		Rows:     rows,
		MaxZoom:  maxZoom,
		TileSize: tileSize,
		broken:   map[Cell]bool{},
		faulty:   map[Cell]bool{},
		corrupt:  map[Cell]bool{},
		denied:   map[Cell]bool{},
		encoded:  map[string][]byte{},
	}
	router := chi.NewRouter()
	router.Head("/{tile}", ts.serveTile)
	router.Get("/{tile}", ts.serveTile)
	router.Get("/page/{id}", ts.servePage)
	ts.Server = httptest.NewServer(router)
	t.Cleanup(ts.Server.Close)
	return ts
}

// Base the tile base of the served image
func (ts *TileServer) Base() string {
	return ts.Server.URL + "/img"
}

// Break lets the cell deliver bytes that are no image
func (ts *TileServer) Break(x, y int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.broken[Cell{x, y}] = true
}

// Fault lets the cell answer with a server error
func (ts *TileServer) Fault(x, y int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.faulty[Cell{x, y}] = true
}

// Corrupt lets the cell deliver a truncated PNG
func (ts *TileServer) Corrupt(x, y int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.corrupt[Cell{x, y}] = true
}

// Forbid lets downloads of the cell answer 403, existence checks still succeed
func (ts *TileServer) Forbid(x, y int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.denied[Cell{x, y}] = true
}

// SetPage replaces the generated archive page
func (ts *TileServer) SetPage(html string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.page = html
}

// Gets the number of tile downloads
func (ts *TileServer) Gets() int {
	return int(ts.gets.Load())
}

// Heads the number of existence checks
func (ts *TileServer) Heads() int {
	return int(ts.heads.Load())
}

// Dimensions the grid size of the zoom level
func (ts *TileServer) Dimensions(zoom int) (int, int) {
	return ts.Columns + zoom, ts.Rows + zoom
}

func (ts *TileServer) serveTile(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		ts.heads.Add(1)
	} else {
		ts.gets.Add(1)
	}
	tile := chi.URLParam(r, "tile")
	base, x, y, z, err := address.Parse(tile)
	if err != nil || base != "img" {
		http.Error(w, "bad tile address", http.StatusBadRequest)
		return
	}
	ts.mu.Lock()
	broken := ts.broken[Cell{x, y}]
	faulty := ts.faulty[Cell{x, y}]
	corrupt := ts.corrupt[Cell{x, y}]
	denied := ts.denied[Cell{x, y}]
	ts.mu.Unlock()
	if faulty {
		http.Error(w, "tile storage failure", http.StatusInternalServerError)
		return
	}
	cols, rows := ts.Dimensions(z)
	if z > ts.MaxZoom || x >= cols || y >= rows {
		http.NotFound(w, r)
		return
	}
	if denied && r.Method == http.MethodGet {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if broken {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("this is not an image"))
		return
	}
	data, err := ts.encode(x, y, z)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if corrupt {
		data = data[:len(data)/2]
	}
	w.Header().Set("Content-Type", "image/png")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func (ts *TileServer) servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	ts.mu.Lock()
	page := ts.page
	ts.mu.Unlock()
	if page == "" {
		page = fmt.Sprintf(`<html><head><title>Fixture Archive - Item %s</title></head>
<body><image-viewer id="viewer" url="%s"></image-viewer></body></html>`, chi.URLParam(r, "id"), ts.Base())
	}
	_, _ = w.Write([]byte(page))
}

func (ts *TileServer) encode(x, y, z int) ([]byte, error) {
	key := address.Tile("img", x, y, z)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if data, ok := ts.encoded[key]; ok {
		return data, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, TileImage(x, y, z, ts.TileSize)); err != nil {
		return nil, err
	}
	ts.encoded[key] = buf.Bytes()
	return ts.encoded[key], nil
}

// TileImage the deterministic content of a fixture tile, every pixel encodes the cell and its
// position inside the cell
func TileImage(x, y, z, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			img.Set(px, py, color.NRGBA{
				R: uint8(x*16 + px),
				G: uint8(y*16 + py),
				B: uint8(z * 32),
				A: 255,
			})
		}
	}
	return img
}
