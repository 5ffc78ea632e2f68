package services

import (
	"image/color"
	"math"
)

// colorMask assigns colours to pixels of a size x size image.
type colorMask interface {
	background() color.NRGBA
	foreground(x, y, size int) color.NRGBA
}

func maskFor(cfg StyleConfig) colorMask {
	back := fieldColor(cfg.BackColor, defaultBackColor)
	solid := solidMask{front: fieldColor(cfg.FrontColor, defaultFrontColor), back: back}
	if cfg.ColorType == ColorSolid {
		return solid
	}

	g := gradientMask{
		back:   back,
		center: fieldColor(cfg.CenterColor, defaultCenterColor),
		edge:   fieldColor(cfg.EdgeColor, defaultEdgeColor),
	}
	switch cfg.ColorType {
	case ColorRadial:
		g.distance = radialDistance
	case ColorSquare:
		g.distance = squareDistance
	case ColorHorizontal:
		g.distance = horizontalDistance
	case ColorVertical:
		g.distance = verticalDistance
	default:
		return solid
	}
	return g
}

type solidMask struct {
	front, back color.NRGBA
}

func (m solidMask) background() color.NRGBA {
	return m.back
}

func (m solidMask) foreground(_, _, _ int) color.NRGBA {
	return m.front
}

// gradientMask blends from center to edge colour by a normalised distance
// in [0, 1].
type gradientMask struct {
	back, center, edge color.NRGBA
	distance           func(x, y, size int) float64
}

func (m gradientMask) background() color.NRGBA {
	return m.back
}

func (m gradientMask) foreground(x, y, size int) color.NRGBA {
	return lerpColor(m.center, m.edge, m.distance(x, y, size))
}

func offsets(x, y, size int) (dx, dy, half float64) {
	half = float64(size) / 2
	return math.Abs(float64(x) + 0.5 - half), math.Abs(float64(y) + 0.5 - half), half
}

func radialDistance(x, y, size int) float64 {
	dx, dy, half := offsets(x, y, size)
	return clamp01(math.Hypot(dx, dy) / (half * math.Sqrt2))
}

func squareDistance(x, y, size int) float64 {
	dx, dy, half := offsets(x, y, size)
	return clamp01(math.Max(dx, dy) / half)
}

// horizontalDistance ramps from the left edge to the right edge.
func horizontalDistance(x, _, size int) float64 {
	return clamp01((float64(x) + 0.5) / float64(size))
}

// verticalDistance ramps from the top edge to the bottom edge.
func verticalDistance(_, y, size int) float64 {
	return clamp01((float64(y) + 0.5) / float64(size))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(p, q uint8) uint8 {
		return uint8(math.Round(float64(p) + (float64(q)-float64(p))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
