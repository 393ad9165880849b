// SPDX-License-Identifier: EPL-2.0

package crossfade

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Curve selects the gain law of a crossfade.
type Curve uint8

const (
	// EqualPower keeps out²+in² = 1 so the midpoint does not dip.
	EqualPower Curve = iota
	Linear
	Logarithmic
	Exponential
	// Custom interpolates the Table installed on the Fader. Without one it
	// behaves like Linear.
	Custom
)

func (c Curve) String() string {
	switch c {
	case EqualPower:
		return "equal_power"
	case Linear:
		return "linear"
	case Logarithmic:
		return "logarithmic"
	case Exponential:
		return "exponential"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("curve(%d)", uint8(c))
	}
}

// Valid reports whether c is a known curve.
func (c Curve) Valid() bool { return c <= Custom }

// ParseCurve accepts the names produced by String, case-insensitively, plus
// a few common aliases.
func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal_power", "equal-power", "equalpower", "constant_power", "sine_cosine":
		return EqualPower, nil
	case "linear":
		return Linear, nil
	case "logarithmic", "log":
		return Logarithmic, nil
	case "exponential", "exp":
		return Exponential, nil
	case "custom":
		return Custom, nil
	default:
		return EqualPower, fmt.Errorf("%w: %q", ErrUnknownCurve, s)
	}
}

// CurveFromParameter maps a shape control in [-1,1] to a curve: below
// -0.5 is logarithmic, above 0.5 exponential, linear in between.
func CurveFromParameter(x float64) Curve {
	switch {
	case x < -0.5:
		return Logarithmic
	case x > 0.5:
		return Exponential
	default:
		return Linear
	}
}

// Gains returns the outgoing and incoming gain at progress p. p is
// clamped into [0,1]; at the end points the gains are exactly 0 and 1.
func (c Curve) Gains(p float64) (out, in float64) {
	if !(p > 0) {
		return 1, 0
	}
	if p >= 1 {
		return 0, 1
	}

	switch c {
	case Linear, Custom:
		return 1 - p, p
	case Logarithmic:
		q := 1 - p
		return q * q, p * p
	case Exponential:
		q := 1 - p
		return q * q * q, p * p * p
	default:
		a := p * math.Pi / 2
		return math.Cos(a), math.Sin(a)
	}
}

// MaxCurvePoints bounds the size of a custom curve.
const MaxCurvePoints = 64

// Table is a custom fade-in shape: points spread evenly over the
// crossfade and joined linearly. The outgoing gain is the same shape
// played backwards. A Table is immutable once built.
type Table struct {
	n   int
	pts [MaxCurvePoints]float64
}

// NewTable builds a custom curve from 2 to MaxCurvePoints gains in [0,1].
func NewTable(points []float64) (*Table, error) {
	if len(points) < 2 || len(points) > MaxCurvePoints {
		return nil, fmt.Errorf("%w: %d points, want 2 to %d", ErrInvalidCurvePoints, len(points), MaxCurvePoints)
	}
	for i, v := range points {
		if !(v >= 0 && v <= 1) {
			return nil, fmt.Errorf("%w: point %d is %v, want [0, 1]", ErrInvalidCurvePoints, i, v)
		}
	}

	t := &Table{n: len(points)}
	copy(t.pts[:], points)

	return t, nil
}

// Points returns a copy of the curve's points.
func (t *Table) Points() []float64 {
	return slices.Clone(t.pts[:t.n])
}

// At interpolates the shape at p, clamped into [0,1].
func (t *Table) At(p float64) float64 {
	if !(p > 0) {
		return t.pts[0]
	}
	if p >= 1 {
		return t.pts[t.n-1]
	}

	x := p * float64(t.n-1)
	i := int(x)
	f := x - float64(i)

	return t.pts[i] + f*(t.pts[i+1]-t.pts[i])
}

// Gains is Curve.Gains for the custom shape. A nil Table is linear. The
// end points are exactly (1, 0) and (0, 1) whatever the table holds.
func (t *Table) Gains(p float64) (out, in float64) {
	if !(p > 0) {
		return 1, 0
	}
	if p >= 1 {
		return 0, 1
	}
	if t == nil {
		return Linear.Gains(p)
	}

	return t.At(1 - p), t.At(p)
}
