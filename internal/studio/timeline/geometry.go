// Package timeline maps timeline time to pixel offsets for interactive editing.
//
// All functions are pure and total. Clamping a zoom factor into its allowed
// range, and clamping a dragged time at zero, is the caller's job.
package timeline

import "math"

const (
	DefaultBasePixelDensity = 50.0
	DefaultMinZoom          = 0.5
	DefaultMaxZoom          = 3.0
)

// PixelsPerUnit returns the pixel density for a zoom factor.
func PixelsPerUnit(base, zoom float64) float64 {
	return base * zoom
}

// TimeToPixels converts a time offset into a pixel offset.
func TimeToPixels(t, pixelsPerUnit float64) float64 {
	return t * pixelsPerUnit
}

// PixelsToTime converts a pixel offset back into time. A non-positive or
// non-finite density maps every offset to 0.
func PixelsToTime(px, pixelsPerUnit float64) float64 {
	if !(pixelsPerUnit > 0) || math.IsInf(pixelsPerUnit, 1) {
		return 0
	}
	return px / pixelsPerUnit
}

// ClampZoom bounds zoom into [min, max]. NaN collapses to min.
func ClampZoom(zoom, min, max float64) float64 {
	if math.IsNaN(zoom) || zoom < min {
		return min
	}
	if zoom > max {
		return max
	}
	return zoom
}

// DragTo returns the time a track starting at start lands on after a drag of
// deltaPx pixels. The result may be negative.
func DragTo(start, deltaPx, pixelsPerUnit float64) float64 {
	return start + PixelsToTime(deltaPx, pixelsPerUnit)
}

// Geometry bundles a base density with its zoom range.
type Geometry struct {
	Base    float64
	MinZoom float64
	MaxZoom float64
}

func NewGeometry(base, minZoom, maxZoom float64) Geometry {
	if base <= 0 {
		base = DefaultBasePixelDensity
	}
	if minZoom <= 0 || maxZoom < minZoom {
		minZoom, maxZoom = DefaultMinZoom, DefaultMaxZoom
	}
	return Geometry{Base: base, MinZoom: minZoom, MaxZoom: maxZoom}
}

// Scale clamps zoom and returns the resulting pixels-per-unit density.
func (g Geometry) Scale(zoom float64) float64 {
	return PixelsPerUnit(g.Base, ClampZoom(zoom, g.MinZoom, g.MaxZoom))
}
