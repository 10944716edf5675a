// Package bind performs type-aware value assignment and connection between plugs
// whose shapes differ, projecting or dropping components where needed.
package bind

import (
	"errors"
	"fmt"

	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/mtlx"
)

// ErrTypeMismatch is returned when no coercion rule can bind a value or connection.
var ErrTypeMismatch = errors.New("type mismatch")

// PlugShape is the coercion class of a plug.
type PlugShape int

const (
	Other PlugShape = iota
	Scalar
	Vector3
	Color3
	Color4
)

func (s PlugShape) String() string {
	switch s {
	case Scalar:
		return "scalar"
	case Vector3:
		return "vector3"
	case Color3:
		return "color3"
	case Color4:
		return "color4"
	default:
		return "other"
	}
}

// Classify maps a host plug shape to its coercion class.
func Classify(s graph.Shape) PlugShape {
	switch s {
	case graph.ShapeFloat, graph.ShapeInt:
		return Scalar
	case graph.ShapeVector3:
		return Vector3
	case graph.ShapeColor3:
		return Color3
	case graph.ShapeColor4:
		return Color4
	default:
		return Other
	}
}

// Strategy is how a (source, target) pair is connected.
type Strategy int

const (
	Direct Strategy = iota
	ScalarToFirstChannel
	FirstChannelToScalar
	FirstThreeChannels
)

func (s Strategy) String() string {
	switch s {
	case ScalarToFirstChannel:
		return "scalar_to_first_channel"
	case FirstChannelToScalar:
		return "first_channel_to_scalar"
	case FirstThreeChannels:
		return "first_three_channels"
	default:
		return "direct"
	}
}

type shapePair struct {
	source PlugShape
	target PlugShape
}

var connectStrategies = map[shapePair]Strategy{
	{Scalar, Color3}:  ScalarToFirstChannel,
	{Scalar, Color4}:  ScalarToFirstChannel,
	{Scalar, Vector3}: ScalarToFirstChannel,
	{Color3, Scalar}:  FirstChannelToScalar,
	{Color4, Scalar}:  FirstChannelToScalar,
	{Vector3, Scalar}: FirstChannelToScalar,
	{Color3, Color4}:  FirstThreeChannels,
	{Color4, Color3}:  FirstThreeChannels,
	{Vector3, Color4}: FirstThreeChannels,
	{Color4, Vector3}: FirstThreeChannels,
}

// ConnectStrategy returns the strategy used to connect a source of shape src into a target of shape dst.
func ConnectStrategy(src, dst graph.Shape) Strategy {
	if s, ok := connectStrategies[shapePair{Classify(src), Classify(dst)}]; ok {
		return s
	}
	return Direct
}

// Connect drives dst from src using the coercion table. Components that have no
// counterpart keep their current value.
func Connect(g *graph.Graph, src, dst *graph.Plug) error {
	if src == nil || dst == nil {
		return fmt.Errorf("%w: missing plug", ErrTypeMismatch)
	}

	var err error
	switch ConnectStrategy(src.Shape, dst.Shape) {
	case ScalarToFirstChannel:
		err = g.Connect(src, dst.Children[0])
	case FirstChannelToScalar:
		err = g.Connect(src.Children[0], dst)
	case FirstThreeChannels:
		for i := 0; i < 3 && err == nil; i++ {
			err = g.Connect(src.Children[i], dst.Children[i])
		}
	default:
		err = g.Connect(src, dst)
	}
	if err != nil {
		return fmt.Errorf("%w: connect %s -> %s: %v", ErrTypeMismatch, src, dst, err)
	}
	return nil
}

// Assign sets a literal on dst. Composite targets are built from the leading
// components of a numeric value; anything else is set directly.
func Assign(g *graph.Graph, dst *graph.Plug, v *mtlx.Value) error {
	if dst == nil || v == nil {
		return fmt.Errorf("%w: missing plug or value", ErrTypeMismatch)
	}

	var err error
	if n := dst.Shape.Components(); n > 0 {
		if len(v.Numbers) < n {
			err = fmt.Errorf("%d components, want %d", len(v.Numbers), n)
		} else {
			err = g.SetValue(dst, append([]float64(nil), v.Numbers[:n]...))
		}
	} else {
		err = g.SetValue(dst, literal(dst.Shape, v))
	}
	if err != nil {
		return fmt.Errorf("%w: set %s = %s: %v", ErrTypeMismatch, dst, v, err)
	}
	return nil
}

// literal converts a value to the Go type the host expects for a non-composite plug.
func literal(target graph.Shape, v *mtlx.Value) interface{} {
	switch {
	case v.Type == mtlx.TypeBoolean:
		return v.Bool
	case len(v.Numbers) == 1:
		if target == graph.ShapeInt && v.Type == mtlx.TypeInteger {
			return int(v.Numbers[0])
		}
		return v.Numbers[0]
	case len(v.Numbers) > 1:
		return v.Numbers
	default:
		return v.Text
	}
}
