package address

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const base = "https://lh5.ggpht.com/abc"

func TestTemplates(t *testing.T) {
	ast := assert.New(t)

	ast.Equal(base+"=x0-y0-z1", ZoomTemplate(base).Address(1))
	ast.Equal(base+"=z4-y0-x17", ColumnTemplate(base, 4).Address(17))
	ast.Equal(base+"=z4-x0-y3", RowTemplate(base, 4).Address(3))
	ast.Equal(Row, RowTemplate(base, 4).Free())

	tpl := ColumnTemplate(base, 2)
	ast.Equal(tpl.Address(5), tpl.Address(5))
	ast.NotEqual(tpl.Address(5), tpl.Address(6))
}

func TestTile(t *testing.T) {
	ast := assert.New(t)
	ast.Equal(base+"=x2-y3-z4", Tile(base, 2, 3, 4))
}

func TestParse(t *testing.T) {
	ast := assert.New(t)
	tt := []struct {
		addr    string
		x, y, z int
	}{
		{base + "=x2-y3-z4", 2, 3, 4},
		{base + "=z4-y0-x17", 17, 0, 4},
		{RowTemplate(base, 5).Address(9), 0, 9, 5},
		{ZoomTemplate(base).Address(7), 0, 0, 7},
	}
	for _, td := range tt {
		b, x, y, z, err := Parse(td.addr)
		ast.NoError(err, td.addr)
		ast.Equal(base, b)
		ast.Equal(td.x, x)
		ast.Equal(td.y, y)
		ast.Equal(td.z, z)
	}
}

func TestParseMalformed(t *testing.T) {
	ast := assert.New(t)
	for _, addr := range []string{
		base,
		base + "=x1-y2",
		base + "=x1-y2-q3",
		base + "=x1-y2-z",
		base + "=x1-y-2-z3",
		base + "=xa-y2-z3",
	} {
		_, _, _, _, err := Parse(addr)
		ast.True(errors.Is(err, ErrMalformed), addr)
	}
}

func TestAxisString(t *testing.T) {
	ast := assert.New(t)
	ast.Equal("column", Column.String())
	ast.Equal("row", Row.String())
	ast.Equal("zoom", Zoom.String())
}
