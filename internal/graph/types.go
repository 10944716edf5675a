package graph

import "errors"

var (
	// ErrIncompatible is returned when a plug refuses a value or a connection.
	ErrIncompatible = errors.New("incompatible plug")
	ErrNotFound     = errors.New("not found")
)

type NodeID int

type NodeKind string

const (
	KindHost             NodeKind = "host"
	KindBox              NodeKind = "box"
	KindBoxIn            NodeKind = "box_in"
	KindBoxOut           NodeKind = "box_out"
	KindShader           NodeKind = "shader"
	KindDisplacement     NodeKind = "displacement"
	KindPathFilter       NodeKind = "path_filter"
	KindShaderAssignment NodeKind = "shader_assignment"
	KindAttributes       NodeKind = "attributes"
)

// Shape is the data layout of a plug.
type Shape int

const (
	ShapeCompound Shape = iota // container with no value of its own
	ShapeFloat
	ShapeInt
	ShapeBool
	ShapeString
	ShapeStringVector
	ShapeVector3
	ShapeColor3
	ShapeColor4
	ShapeScene
	ShapeFilter
	ShapeShader
)

var shapeNames = map[Shape]string{
	ShapeCompound:     "compound",
	ShapeFloat:        "float",
	ShapeInt:          "int",
	ShapeBool:         "bool",
	ShapeString:       "string",
	ShapeStringVector: "string_vector",
	ShapeVector3:      "v3f",
	ShapeColor3:       "color3f",
	ShapeColor4:       "color4f",
	ShapeScene:        "scene",
	ShapeFilter:       "filter",
	ShapeShader:       "shader",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// componentNames lists the child plugs created for numeric compound shapes.
var componentNames = map[Shape][]string{
	ShapeVector3: {"x", "y", "z"},
	ShapeColor3:  {"r", "g", "b"},
	ShapeColor4:  {"r", "g", "b", "a"},
}

// Components reports the number of float channels of a numeric compound shape.
func (s Shape) Components() int {
	return len(componentNames[s])
}

type Direction int

const (
	In Direction = iota
	Out
)

// Edge is a connection between two plugs, identified by plug path.
type Edge struct {
	From string
	To   string
	Kind string
}
