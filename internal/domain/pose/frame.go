package pose

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Landmark is one joint position in normalized frame coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Dimensions is the pixel size of a decoded video frame.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both sides are positive.
func (d Dimensions) Valid() bool { return d.Width > 0 && d.Height > 0 }

// ToPixels scales a normalized coordinate to floating point pixels.
func (d Dimensions) ToPixels(x, y float64) r2.Vec {
	return r2.Vec{X: x * float64(d.Width), Y: y * float64(d.Height)}
}

// ToPoint scales a normalized coordinate to an integer pixel, truncating.
func (d Dimensions) ToPoint(x, y float64) image.Point {
	return image.Pt(int(x*float64(d.Width)), int(y*float64(d.Height)))
}

// Frame is the read-only set of landmarks detected in a single video frame.
// The zero value is an empty frame.
type Frame struct {
	landmarks map[Joint]Landmark
}

// NewFrame copies landmarks into a new Frame. Later changes to the input map
// are not observed by the frame.
func NewFrame(landmarks map[Joint]Landmark) Frame {
	m := make(map[Joint]Landmark, len(landmarks))
	for j, l := range landmarks {
		m[j] = l
	}
	return Frame{landmarks: m}
}

// Get returns the landmark for j.
func (f Frame) Get(j Joint) (Landmark, bool) {
	l, ok := f.landmarks[j]
	return l, ok
}

// Has reports whether every joint in js is present.
func (f Frame) Has(js ...Joint) bool {
	for _, j := range js {
		if _, ok := f.landmarks[j]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of landmarks in the frame.
func (f Frame) Len() int { return len(f.landmarks) }

// Empty reports whether no landmark was detected.
func (f Frame) Empty() bool { return len(f.landmarks) == 0 }

// Joints returns the present joints in vocabulary order.
func (f Frame) Joints() []Joint {
	out := make([]Joint, 0, len(f.landmarks))
	for j := range f.landmarks {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index() < out[b].Index() })
	return out
}

// Pixel returns the landmark for j scaled to pixel coordinates.
func (f Frame) Pixel(j Joint, dims Dimensions) (r2.Vec, bool) {
	l, ok := f.landmarks[j]
	if !ok {
		return r2.Vec{}, false
	}
	return dims.ToPixels(l.X, l.Y), true
}

// Pixels resolves several joints at once. It fails if any joint is missing,
// so callers never measure against a fabricated position.
func (f Frame) Pixels(dims Dimensions, js ...Joint) ([]r2.Vec, bool) {
	out := make([]r2.Vec, len(js))
	for i, j := range js {
		p, ok := f.Pixel(j, dims)
		if !ok {
			return nil, false
		}
		out[i] = p
	}
	return out, true
}
