// Package address builds and parses tile addresses of the form <base>=x<col>-y<row>-z<zoom>.
package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Axis one of the three ordinal tile axes
type Axis byte

const (
	Column Axis = 'x'
	Row    Axis = 'y'
	Zoom   Axis = 'z'
)

// ErrMalformed the address has no parsable axis part
var ErrMalformed = errors.New("address: malformed tile address")

func (a Axis) String() string {
	switch a {
	case Column:
		return "column"
	case Row:
		return "row"
	case Zoom:
		return "zoom"
	}
	return fmt.Sprintf("axis(%c)", byte(a))
}

// Fixed an axis pinned to a value
type Fixed struct {
	Axis  Axis
	Value int
}

// Template an address with two fixed axes and one free axis
type Template struct {
	prefix string
	free   Axis
}

// NewTemplate creates the template, the free axis is always written last
func NewTemplate(base string, free Axis, a, b Fixed) Template {
	return Template{
		prefix: fmt.Sprintf("%s=%c%d-%c%d-", base, a.Axis, a.Value, b.Axis, b.Value),
		free:   free,
	}
}

// Address the concrete address for the given value of the free axis
func (t Template) Address(v int) string {
	return t.prefix + string(t.free) + strconv.Itoa(v)
}

// Free the free axis of this template
func (t Template) Free() Axis {
	return t.free
}

// ZoomTemplate probes the zoom axis at tile (0,0)
func ZoomTemplate(base string) Template {
	return NewTemplate(base, Zoom, Fixed{Column, 0}, Fixed{Row, 0})
}

// ColumnTemplate probes the column axis in row 0 of the given zoom level
func ColumnTemplate(base string, zoom int) Template {
	return NewTemplate(base, Column, Fixed{Zoom, zoom}, Fixed{Row, 0})
}

// RowTemplate probes the row axis in column 0 of the given zoom level
func RowTemplate(base string, zoom int) Template {
	return NewTemplate(base, Row, Fixed{Zoom, zoom}, Fixed{Column, 0})
}

// Tile the fully specified address of one tile
func Tile(base string, x, y, zoom int) string {
	return fmt.Sprintf("%s=x%d-y%d-z%d", base, x, y, zoom)
}

// Parse splits a tile address into its base and the three axis values, axis order is insignificant
func Parse(addr string) (base string, x, y, zoom int, err error) {
	i := strings.LastIndex(addr, "=")
	if i < 0 {
		return "", 0, 0, 0, errors.Wrapf(ErrMalformed, "no axis part in %q", addr)
	}
	base = addr[:i]
	seen := map[Axis]bool{}
	for _, p := range strings.Split(addr[i+1:], "-") {
		if len(p) < 2 {
			return "", 0, 0, 0, errors.Wrapf(ErrMalformed, "axis part %q in %q", p, addr)
		}
		v, cerr := strconv.Atoi(p[1:])
		if cerr != nil || v < 0 {
			return "", 0, 0, 0, errors.Wrapf(ErrMalformed, "axis value %q in %q", p, addr)
		}
		ax := Axis(p[0])
		switch ax {
		case Column:
			x = v
		case Row:
			y = v
		case Zoom:
			zoom = v
		default:
			return "", 0, 0, 0, errors.Wrapf(ErrMalformed, "unknown axis %q in %q", p[0], addr)
		}
		seen[ax] = true
	}
	if len(seen) != 3 {
		return "", 0, 0, 0, errors.Wrapf(ErrMalformed, "missing axis in %q", addr)
	}
	return base, x, y, zoom, nil
}
