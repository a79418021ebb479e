package internal

import (
	"context"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/page"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/internal/testutils"
	"github.com/willie68/go_tilerip/internal/tilecache"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

func TestInitRip(t *testing.T) {
	ast := assert.New(t)
	ts := testutils.NewTileServer(t, 3, 2, 1, 4)
	require.NoError(t, config.LoadDefault())
	config.Get().Page.ItemURL = ts.Server.URL + "/page/%s"
	config.Get().Cache.Active = true
	config.Get().Cache.Path = t.TempDir()
	config.SetParameter(config.WithWorkers(2), config.WithMetrics(true))

	inj := Init()
	defer Stop()

	it, err := do.MustInvoke[*page.Resolver](inj).Resolve(context.Background(), "B-7")
	require.NoError(t, err)
	ast.Equal("Item B-7", it.Title)

	rp := do.MustInvoke[*ripper.Ripper](inj)
	ast.Equal(2, rp.Workers())
	img, err := rp.Rip(context.Background(), it.Base, ripper.AutoZoom)
	require.NoError(t, err)
	ast.Equal(4*4, img.Bounds().Dx())
	ast.Equal(3*4, img.Bounds().Dy())

	ast.True(do.MustInvoke[tilecache.TileCache](inj).IsActive())
	ms := do.MustInvoke[*measurement.Service](inj)
	ast.Equal(1, ms.Point(ripper.MeasureRip).Data().Count)
}
