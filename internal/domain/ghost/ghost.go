// Package ghost produces the idealized reference skeleton drawn over a frame
// for visual comparison. It never takes part in scoring.
package ghost

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
)

//go:embed poses.yaml
var defaultYAML []byte

// Bone is a line drawn between two joints of the reference skeleton.
type Bone [2]pose.Joint

// Bones lists the skeleton lines, drawn only when both ends are in the pose.
var Bones = []Bone{
	{pose.LeftShoulder, pose.LeftElbow}, {pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow}, {pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftHip}, {pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee}, {pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee}, {pose.RightKnee, pose.RightAnkle},
}

// Point is one skeleton joint in pixel coordinates.
type Point struct {
	Joint pose.Joint `json:"joint"`
	X     int        `json:"x"`
	Y     int        `json:"y"`
}

// Line is a bone resolved to pixel endpoints.
type Line struct {
	From image.Point `json:"from"`
	To   image.Point `json:"to"`
}

// Skeleton is a reference pose scaled to one frame.
type Skeleton struct {
	Points []Point `json:"points"`
	Lines  []Line  `json:"lines"`
}

// Empty reports whether the skeleton has nothing to draw.
func (s Skeleton) Empty() bool { return len(s.Points) == 0 }

type key struct {
	cat   exercise.Category
	phase exercise.Phase
}

// Library is a read-only table of normalized reference poses.
type Library struct {
	poses map[key]map[pose.Joint][2]float64
}

// Load parses a YAML pose table of the form category -> phase -> joint -> [x, y].
func Load(r io.Reader) (*Library, error) {
	var raw map[string]map[string]map[string][]float64
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidPose, err)
	}

	lib := &Library{poses: make(map[key]map[pose.Joint][2]float64)}
	for catName, phases := range raw {
		cat, ok := exercise.Parse(catName)
		if !ok || cat == exercise.Unknown {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidPose, catName)
		}
		for phaseName, joints := range phases {
			phase := exercise.Phase(phaseName)
			if phase != exercise.Bottom && phase != exercise.Top {
				return nil, fmt.Errorf("%w: %s: unknown phase %q", ErrInvalidPose, catName, phaseName)
			}
			coords := make(map[pose.Joint][2]float64, len(joints))
			for name, xy := range joints {
				j, ok := pose.ParseJoint(name)
				if !ok {
					return nil, fmt.Errorf("%w: %s.%s: unknown joint %q", ErrInvalidPose, catName, phaseName, name)
				}
				if len(xy) != 2 || !unit(xy[0]) || !unit(xy[1]) {
					return nil, fmt.Errorf("%w: %s.%s.%s: want [x, y] within [0, 1]", ErrInvalidPose, catName, phaseName, name)
				}
				coords[j] = [2]float64{xy[0], xy[1]}
			}
			lib.poses[key{cat, phase}] = coords
		}
	}
	return lib, nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the built-in pose table.
func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := Load(bytes.NewReader(defaultYAML))
		if err != nil {
			panic("embedded poses.yaml is invalid: " + err.Error())
		}
		defaultLib = lib
	})
	return defaultLib
}

// Has reports whether a pose exists for the category and phase.
func (l *Library) Has(cat exercise.Category, phase exercise.Phase) bool {
	_, ok := l.poses[key{cat, phase}]
	return ok
}

// Pose returns the reference skeleton for cat and phase scaled to dims.
// Unknown combinations yield an empty skeleton.
func (l *Library) Pose(cat exercise.Category, phase exercise.Phase, dims pose.Dimensions) Skeleton {
	coords, ok := l.poses[key{cat, phase}]
	if !ok || !dims.Valid() {
		return Skeleton{}
	}

	pixels := make(map[pose.Joint]image.Point, len(coords))
	var s Skeleton
	for _, j := range pose.Joints {
		xy, ok := coords[j]
		if !ok {
			continue
		}
		p := dims.ToPoint(xy[0], xy[1])
		pixels[j] = p
		s.Points = append(s.Points, Point{Joint: j, X: p.X, Y: p.Y})
	}
	for _, b := range Bones {
		from, ok1 := pixels[b[0]]
		to, ok2 := pixels[b[1]]
		if ok1 && ok2 {
			s.Lines = append(s.Lines, Line{From: from, To: to})
		}
	}
	return s
}
