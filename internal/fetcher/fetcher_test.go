package fetcher

import (
	"context"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_tilerip/internal/codec"
	"github.com/willie68/go_tilerip/internal/testutils"
	"github.com/willie68/go_tilerip/internal/tilecache"
	"github.com/willie68/go_tilerip/internal/transport"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

func TestFetchCell(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 3, 2, 1, 8)
	ms := measurement.New(true)
	f := New(transport.NewHTTP(transport.Config{}), ts.Base(), WithMeasurement(ms))

	tile, err := f.FetchCell(context.Background(), 2, 1, 0)
	require.NoError(t, err)
	ast.Equal(2, tile.X)
	ast.Equal(1, tile.Y)
	ast.Equal(0, tile.Zoom)
	ast.Equal(codec.PNG, tile.Format)
	ast.Equal(8, tile.Width())
	ast.Equal(8, tile.Height())

	want := testutils.TileImage(2, 1, 0, 8)
	ast.Equal(color.RGBAModel.Convert(want.At(3, 5)), color.RGBAModel.Convert(tile.Image.At(3, 5)))

	ast.Equal(1, ms.Point(MeasureFetch).Data().Count)
	ast.Equal(1, ms.Point(MeasureDecode).Data().Count)
}

func TestFetchCellDecodeFailure(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 3, 3, 0, 4)
	ts.Break(1, 1)
	f := New(transport.NewHTTP(transport.Config{}), ts.Base())

	_, err := f.FetchCell(context.Background(), 1, 1, 0)
	ast.Error(err)
	ast.True(errors.Is(err, codec.ErrFormatInference))
	ast.Contains(err.Error(), "(1,1)")
}

func TestFetchCellTruncatedTile(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 5, 5, 0, 4)
	ts.Corrupt(2, 3)
	f := New(transport.NewHTTP(transport.Config{}), ts.Base())

	tile, err := f.FetchCell(context.Background(), 2, 3, 0)
	ast.Nil(tile.Image)
	ast.True(errors.Is(err, codec.ErrDecode))
	ast.Contains(err.Error(), "decoding tile (2,3)")
}

func TestFetchCellForbidden(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 3, 3, 0, 4)
	ts.Forbid(1, 1)
	svc := transport.NewHTTP(transport.Config{})
	f := New(svc, ts.Base())

	ast.NoError(svc.Exists(context.Background(), ts.Base()+"=x1-y1-z0"))
	_, err := f.FetchCell(context.Background(), 1, 1, 0)
	ast.True(errors.Is(err, transport.ErrNotFound))
	ast.False(transport.IsBoundary(err))
}

func TestFetchCellTransportFailure(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 3, 3, 0, 4)
	ts.Fault(0, 2)
	f := New(transport.NewHTTP(transport.Config{}), ts.Base())

	_, err := f.FetchCell(context.Background(), 0, 2, 0)
	ast.True(errors.Is(err, transport.ErrServer))

	_, err = f.FetchCell(context.Background(), 7, 0, 0)
	ast.True(errors.Is(err, transport.ErrNotFound))
	ast.False(transport.IsBoundary(err))
}

func TestFetchCellUsesCache(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 2, 2, 0, 4)
	c, err := tilecache.New(tilecache.Config{Active: true, Type: tilecache.TypeFile, Path: t.TempDir()})
	require.NoError(t, err)
	defer c.Close()

	svc := transport.NewHTTP(transport.Config{})
	ctx := context.Background()
	_, err = New(svc, ts.Base(), WithCache(c)).FetchCell(ctx, 1, 0, 0)
	require.NoError(t, err)
	ast.Equal(1, ts.Gets())

	tile, err := New(svc, ts.Base(), WithCache(c)).FetchCell(ctx, 1, 0, 0)
	require.NoError(t, err)
	ast.Equal(1, ts.Gets())
	ast.Equal(4, tile.Width())
}

func TestBrokenTileIsNotCached(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 2, 2, 0, 4)
	ts.Break(0, 1)
	c, err := tilecache.New(tilecache.Config{Active: true, Type: tilecache.TypeFile, Path: t.TempDir()})
	require.NoError(t, err)
	defer c.Close()

	f := New(transport.NewHTTP(transport.Config{}), ts.Base(), WithCache(c))
	_, err = f.FetchCell(context.Background(), 0, 1, 0)
	ast.Error(err)
	_, err = f.FetchCell(context.Background(), 0, 1, 0)
	ast.Error(err)
	ast.Equal(2, ts.Gets())
}
