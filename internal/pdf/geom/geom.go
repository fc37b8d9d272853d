// Package geom holds the two coordinate spaces the engine works in.
//
// NativeRect is PDF user space: origin at the bottom-left of the page, y
// growing upwards. Box is the working space of the matcher: origin at the
// top-left of the page's media box, y growing downwards. The only way to go
// from one to the other is ToBox / ToNative.
package geom

import "math"

// Matrix is an affine transform [a b c d e f] applied to row vectors,
// [x' y' 1] = [x y 1] × M.
type Matrix [6]float64

// Identity is the identity transform
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Multiply returns m × n, i.e. the transform that applies m first and n second.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms the point (x, y)
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

// ScaleX is the length of the transformed unit x vector
func (m Matrix) ScaleX() float64 {
	return math.Hypot(m[0], m[1])
}

// ScaleY is the length of the transformed unit y vector
func (m Matrix) ScaleY() float64 {
	return math.Hypot(m[2], m[3])
}

// NativeRect is a rectangle in PDF user space (bottom-left origin)
type NativeRect struct {
	LLX float64 `json:"llx"`
	LLY float64 `json:"lly"`
	URX float64 `json:"urx"`
	URY float64 `json:"ury"`
}

// Normalize orders the corners so that LL is below and left of UR
func (r NativeRect) Normalize() NativeRect {
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}

// Width of the rectangle
func (r NativeRect) Width() float64 {
	return math.Abs(r.URX - r.LLX)
}

// Height of the rectangle
func (r NativeRect) Height() float64 {
	return math.Abs(r.URY - r.LLY)
}

// Inflate grows the rectangle by d on every side
func (r NativeRect) Inflate(d float64) NativeRect {
	r = r.Normalize()
	return NativeRect{LLX: r.LLX - d, LLY: r.LLY - d, URX: r.URX + d, URY: r.URY + d}
}

// Box is a rectangle in top-left-origin page space
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right edge x coordinate
func (b Box) Right() float64 {
	return b.X + b.Width
}

// Bottom edge y coordinate
func (b Box) Bottom() float64 {
	return b.Y + b.Height
}

// IsEmpty reports whether the box has no area
func (b Box) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Union returns the smallest box containing both b and o
func (b Box) Union(o Box) Box {
	x := math.Min(b.X, o.X)
	y := math.Min(b.Y, o.Y)
	return Box{
		X:      x,
		Y:      y,
		Width:  math.Max(b.Right(), o.Right()) - x,
		Height: math.Max(b.Bottom(), o.Bottom()) - y,
	}
}

// ToBox converts r, given in the user space of a page whose media box is
// page, to top-left page space.
func ToBox(page, r NativeRect) Box {
	page = page.Normalize()
	r = r.Normalize()
	return Box{
		X:      r.LLX - page.LLX,
		Y:      page.URY - r.URY,
		Width:  r.Width(),
		Height: r.Height(),
	}
}

// ToNative converts b back into the user space of a page whose media box is page.
func ToNative(page NativeRect, b Box) NativeRect {
	page = page.Normalize()
	return NativeRect{
		LLX: page.LLX + b.X,
		LLY: page.URY - b.Y - b.Height,
		URX: page.LLX + b.X + b.Width,
		URY: page.URY - b.Y,
	}
}
