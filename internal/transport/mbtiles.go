package transport

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/i0tool5/mbtiles-go"
	"github.com/pkg/errors"

	"github.com/willie68/go_tilerip/internal/address"
	"github.com/willie68/go_tilerip/internal/logging"
)

// MBTilesScheme prefix of bases pointing to a local mbtiles file
const MBTilesScheme = "mbtiles://"

// maxPyramidZoom above this a TMS pyramid row count overflows sensible bounds
const maxPyramidZoom = 30

// MBTilesService reads tiles from a mbtiles database. The tile rows are stored in TMS order,
// row 0 of the grid is the top row of the image.
type MBTilesService struct {
	log     *logging.Logger
	path    string
	db      *mbtiles.MBtiles
	maxzoom int
}

// OpenMBTiles opens the database at the path of a mbtiles:// base
func OpenMBTiles(base string) (*MBTilesService, error) {
	path := strings.TrimPrefix(base, MBTilesScheme)
	log := logging.New().WithName("mbtiles")
	db, err := mbtiles.Open(path)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Op: "open", Addr: path, Err: err}
	}
	s := &MBTilesService{
		log:     log,
		path:    path,
		db:      db,
		maxzoom: maxPyramidZoom,
	}
	meta, err := db.ReadMetadata()
	if err != nil {
		log.Warnf("mbtiles %s has no readable metadata: %v", path, err)
	} else if mz, ok := meta["maxzoom"].(int); ok && mz >= 0 && mz < maxPyramidZoom {
		s.maxzoom = mz
	}
	log.Infof("mbtiles %s opened, format: %s, max zoom: %d", path, db.GetTileFormat().String(), s.maxzoom)
	return s, nil
}

// Exists checks the presence of the tile, a missing tile is a boundary
func (s *MBTilesService) Exists(_ context.Context, addr string) error {
	_, err := s.read(addr, ErrBoundary)
	return err
}

// Fetch reads the tile data, a missing tile is ErrNotFound
func (s *MBTilesService) Fetch(_ context.Context, addr string) ([]byte, error) {
	return s.read(addr, ErrNotFound)
}

func (s *MBTilesService) read(addr string, absent error) ([]byte, error) {
	_, x, y, z, err := address.Parse(addr)
	if err != nil {
		return nil, &Error{Kind: ErrServer, Op: "read", Addr: addr, Err: err}
	}
	if z > s.maxzoom {
		return nil, &Error{Kind: absent, Op: "read", Addr: addr}
	}
	ymax := 1 << z
	if x >= ymax || y >= ymax {
		return nil, &Error{Kind: absent, Op: "read", Addr: addr}
	}
	var data []byte
	err = s.db.ReadTile(int64(z), int64(x), int64(ymax-y-1), &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Kind: absent, Op: "read", Addr: addr}
	}
	if err != nil {
		return nil, &Error{Kind: ErrServer, Op: "read", Addr: addr, Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{Kind: absent, Op: "read", Addr: addr}
	}
	return data, nil
}

func (s *MBTilesService) String() string {
	return fmt.Sprintf("mbtiles: %s", s.path)
}

// Close closes the database
func (s *MBTilesService) Close() error {
	s.db.Close()
	return nil
}
