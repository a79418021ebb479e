package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_tilerip/internal/codec"
	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/page"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/internal/testutils"
	"github.com/willie68/go_tilerip/internal/transport"
)

func newServices(ts *testutils.TileServer) (*page.Resolver, *ripper.Ripper) {
	fac := transport.NewFactory(transport.Config{})
	res := page.NewResolver(page.Config{ItemURL: ts.Server.URL + "/page/%s"}, fac.HTTP())
	return res, ripper.New(fac, 2)
}

func TestRipToFile(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, config.LoadDefault())
	ts := testutils.NewTileServer(t, 3, 2, 0, 4)
	res, rp := newServices(ts)
	dir := t.TempDir()

	sum, err := rip(context.Background(), res, rp, ripJob{ref: "B-5", zoom: ripper.AutoZoom, output: dir}, nil, nil)
	require.NoError(t, err)
	ast.Equal(filepath.Join(dir, "Item B-5.png"), sum.target)
	ast.Equal(12, sum.width)
	ast.Equal(8, sum.height)

	data, err := os.ReadFile(sum.target)
	require.NoError(t, err)
	ast.Equal(sum.written, len(data))
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	ast.Equal(12, img.Bounds().Dx())
}

func TestRipToStdout(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, config.LoadDefault())
	ts := testutils.NewTileServer(t, 2, 2, 0, 4)
	res, rp := newServices(ts)

	var out bytes.Buffer
	sum, err := rip(context.Background(), res, rp, ripJob{ref: ts.Base(), zoom: 0, output: stdout, format: "gif"}, nil, &out)
	require.NoError(t, err)
	ast.Equal(stdout, sum.target)
	_, f, err := codec.Decode(out.Bytes())
	require.NoError(t, err)
	ast.Equal(codec.GIF, f)
}

func TestRipFailureWritesNothing(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, config.LoadDefault())
	ts := testutils.NewTileServer(t, 5, 5, 0, 4)
	ts.Break(2, 3)
	res, rp := newServices(ts)
	fn := filepath.Join(t.TempDir(), "scroll.png")

	_, err := rip(context.Background(), res, rp, ripJob{ref: ts.Base(), zoom: 0, output: fn}, nil, nil)
	ast.True(errors.Is(err, codec.ErrFormatInference))
	_, err = os.Stat(fn)
	ast.True(os.IsNotExist(err))
	entries, err := os.ReadDir(filepath.Dir(fn))
	require.NoError(t, err)
	ast.Empty(entries)
}

func TestOutputFormat(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, config.LoadDefault())
	tt := []struct {
		job    ripJob
		format string
	}{
		{ripJob{}, codec.PNG},
		{ripJob{format: "webp"}, codec.WEBP},
		{ripJob{output: "scroll.jpg"}, codec.JPEG},
		{ripJob{output: "scroll.jpg", format: "tiff"}, codec.TIFF},
		{ripJob{output: "scroll"}, codec.PNG},
		{ripJob{output: stdout}, codec.PNG},
	}
	for _, td := range tt {
		f, err := outputFormat(td.job)
		ast.NoError(err)
		ast.Equal(td.format, f, "%+v", td.job)
	}
	_, err := outputFormat(ripJob{format: "svg"})
	ast.True(errors.Is(err, codec.ErrUnsupportedFormat))
}

func TestOutputTarget(t *testing.T) {
	ast := assert.New(t)
	dir := t.TempDir()
	ast.Equal("tilerip.png", outputTarget(ripJob{}, "", codec.PNG))
	ast.Equal("Plate 1_2.jpg", outputTarget(ripJob{}, "Plate 1/2", codec.JPEG))
	ast.Equal(stdout, outputTarget(ripJob{output: stdout}, "x", codec.PNG))
	ast.Equal(filepath.Join(dir, "x.webp"), outputTarget(ripJob{output: dir}, "x", codec.WEBP))
	ast.Equal("out.bmp", outputTarget(ripJob{output: "out.bmp"}, "x", codec.BMP))
}
