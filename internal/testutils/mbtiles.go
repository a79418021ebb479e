package testutils

import (
	"bytes"
	"database/sql"
	"image/png"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// MBTile a grid cell stored in a mbtiles fixture, Y counts from the top of the image
type MBTile struct {
	X, Y, Z int
}

// NewMBTiles writes a mbtiles file with the given cells into a temp dir and returns its path.
// Every cell holds TileImage(x, y, z, size) at the TMS row (1<<z)-1-y.
func NewMBTiles(t testing.TB, maxZoom, size int, cells ...MBTile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mbtiles")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE metadata (name TEXT, value TEXT)`,
		`CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)`,
		`CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row)`,
	} {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	meta := map[string]string{
		"name":    "fixture",
		"format":  "png",
		"minzoom": "0",
		"maxzoom": strconv.Itoa(maxZoom),
	}
	for k, v := range meta {
		_, err = db.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?)`, k, v)
		require.NoError(t, err)
	}
	for _, c := range cells {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, TileImage(c.X, c.Y, c.Z, size)))
		row := (1 << c.Z) - 1 - c.Y
		_, err = db.Exec(`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
			c.Z, c.X, row, buf.Bytes())
		require.NoError(t, err)
	}
	return path
}

// DropTiles removes the tiles table of a fixture behind the back of an open reader
func DropTiles(t testing.TB, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`DROP TABLE tiles`)
	require.NoError(t, err)
}
