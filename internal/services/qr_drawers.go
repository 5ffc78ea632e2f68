package services

import (
	"math"
)

// neighbours records which orthogonally adjacent modules are dark.
type neighbours struct {
	up, down, left, right bool
}

// moduleDrawer decides which pixels of a box x box cell belong to a dark
// module. px and py are offsets inside the cell; the pixel centre is used.
type moduleDrawer interface {
	covers(px, py, box int, n neighbours) bool
}

func drawerFor(style string) moduleDrawer {
	switch style {
	case StyleGapped:
		return gappedDrawer{ratio: 0.8}
	case StyleCircle:
		return circleDrawer{}
	case StyleRounded:
		return roundedDrawer{}
	case StyleVertical:
		return barsDrawer{vertical: true, shrink: 0.8}
	case StyleHorizontal:
		return barsDrawer{vertical: false, shrink: 0.8}
	default:
		return squareDrawer{}
	}
}

type squareDrawer struct{}

func (squareDrawer) covers(px, py, box int, _ neighbours) bool {
	return true
}

// gappedDrawer draws a centred square of ratio * box.
type gappedDrawer struct {
	ratio float64
}

func (d gappedDrawer) covers(px, py, box int, _ neighbours) bool {
	margin := float64(box) * (1 - d.ratio) / 2
	x, y := float64(px)+0.5, float64(py)+0.5
	return x >= margin && x <= float64(box)-margin && y >= margin && y <= float64(box)-margin
}

type circleDrawer struct{}

func (circleDrawer) covers(px, py, box int, _ neighbours) bool {
	r := float64(box) / 2
	dx, dy := float64(px)+0.5-r, float64(py)+0.5-r
	return dx*dx+dy*dy <= r*r
}

// roundedDrawer rounds every corner whose two adjacent sides have no dark
// neighbour, so runs of modules join into smooth blobs.
type roundedDrawer struct{}

func (roundedDrawer) covers(px, py, box int, n neighbours) bool {
	half := float64(box) / 2
	x, y := float64(px)+0.5, float64(py)+0.5

	var round bool
	switch {
	case x < half && y < half:
		round = !n.up && !n.left
	case x >= half && y < half:
		round = !n.up && !n.right
	case x < half && y >= half:
		round = !n.down && !n.left
	default:
		round = !n.down && !n.right
	}
	if !round {
		return true
	}
	dx, dy := x-half, y-half
	return dx*dx+dy*dy <= half*half
}

// barsDrawer narrows modules across the bar axis and joins them along it,
// capping the ends of each run with a half circle.
type barsDrawer struct {
	vertical bool
	shrink   float64
}

func (d barsDrawer) covers(px, py, box int, n neighbours) bool {
	along, across := float64(py)+0.5, float64(px)+0.5
	before, after := n.up, n.down
	if !d.vertical {
		along, across = across, along
		before, after = n.left, n.right
	}

	size := float64(box)
	margin := size * (1 - d.shrink) / 2
	if across < margin || across > size-margin {
		return false
	}

	r := size * d.shrink / 2
	centre := size / 2
	if !before && along < centre {
		return math.Hypot(across-centre, along-centre) <= r
	}
	if !after && along >= centre {
		return math.Hypot(across-centre, along-centre) <= r
	}
	return true
}
