// Package standards holds the read-only table of biomechanical reference
// ranges that the form scorers compare measurements against.
package standards

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
)

// Check names used by the built-in scorers.
const (
	BottomElbowAngle   = "bottom_elbow_angle"
	TopElbowAngle      = "top_elbow_angle"
	ShallowElbowAngle  = "shallow_elbow_angle"
	BackAlignment      = "back_alignment"
	HipAlignment       = "hip_alignment"
	HipLineOffset      = "hip_line_offset"
	BottomKneeAngle    = "bottom_knee_angle"
	BottomHipAngle     = "bottom_hip_angle"
	BackAngle          = "back_angle"
	ExcellentKneeAngle = "excellent_knee_angle"
	ParallelKneeAngle  = "parallel_knee_angle"
	KneeTracking       = "knee_tracking"
	ShoulderEngagement = "shoulder_engagement"
	BodySwing          = "body_swing"
)

//go:embed standards.yaml
var defaultYAML []byte

// Check is one named reference value: a (min, max) range, a single
// threshold, or an on/off flag.
type Check struct {
	min, max     float64
	threshold    float64
	enabled      bool
	hasRange     bool
	hasThreshold bool
	hasFlag      bool
}

// Range returns the acceptable (min, max) interval.
func (c Check) Range() (lo, hi float64, ok bool) { return c.min, c.max, c.hasRange }

// Threshold returns the single limit value.
func (c Check) Threshold() (float64, bool) { return c.threshold, c.hasThreshold }

// Enabled returns the flag value.
func (c Check) Enabled() (on, ok bool) { return c.enabled, c.hasFlag }

// Contains reports whether v lies inside the range, bounds included.
func (c Check) Contains(v float64) bool {
	return c.hasRange && v >= c.min && v <= c.max
}

// Standard is the set of checks for one exercise category.
type Standard struct {
	checks map[string]Check
}

// Check looks up a named check.
func (s Standard) Check(name string) (Check, bool) {
	c, ok := s.checks[name]
	return c, ok
}

// Names lists the check names in lexical order.
func (s Standard) Names() []string {
	out := make([]string, 0, len(s.checks))
	for n := range s.checks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Table maps each category to its Standard. A Table is never modified after
// it is loaded and is safe for concurrent use.
type Table struct {
	byCategory map[exercise.Category]Standard
}

// For returns the standard for cat.
func (t *Table) For(cat exercise.Category) (Standard, bool) {
	s, ok := t.byCategory[cat]
	return s, ok
}

// Categories lists the categories present in the table.
func (t *Table) Categories() []exercise.Category {
	out := make([]exercise.Category, 0, len(t.byCategory))
	for _, c := range exercise.Categories() {
		if _, ok := t.byCategory[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

type rawCheck struct {
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Threshold *float64 `yaml:"threshold"`
	Enabled   *bool    `yaml:"enabled"`
}

// Load parses a YAML standards table.
func Load(r io.Reader) (*Table, error) {
	var raw map[string]map[string]rawCheck
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidStandard, err)
	}

	t := &Table{byCategory: make(map[exercise.Category]Standard, len(raw))}
	for name, checks := range raw {
		cat, ok := exercise.Parse(name)
		if !ok || cat == exercise.Unknown {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		std := Standard{checks: make(map[string]Check, len(checks))}
		for checkName, rc := range checks {
			c, err := rc.toCheck()
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidStandard, name, checkName, err)
			}
			std.checks[checkName] = c
		}
		t.byCategory[cat] = std
	}
	return t, nil
}

// LoadFile parses the YAML standards table at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open standards file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(defaultYAML))
		if err != nil {
			panic("embedded standards.yaml is invalid: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

func (rc rawCheck) toCheck() (Check, error) {
	var c Check
	switch {
	case rc.Min != nil && rc.Max != nil:
		if *rc.Min > *rc.Max {
			return Check{}, fmt.Errorf("min %.2f greater than max %.2f", *rc.Min, *rc.Max)
		}
		c.min, c.max, c.hasRange = *rc.Min, *rc.Max, true
	case rc.Min != nil || rc.Max != nil:
		return Check{}, fmt.Errorf("range needs both min and max")
	}
	if rc.Threshold != nil {
		c.threshold, c.hasThreshold = *rc.Threshold, true
	}
	if rc.Enabled != nil {
		c.enabled, c.hasFlag = *rc.Enabled, true
	}
	if !c.hasRange && !c.hasThreshold && !c.hasFlag {
		return Check{}, fmt.Errorf("empty check")
	}
	return c, nil
}
