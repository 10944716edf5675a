package shader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"mtlxgraph/internal/graph"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed arnold.yaml
var builtin []byte

//go:embed library.schema.json
var schemaJSON []byte

const schemaURL = "file:///mtlxgraph/shader/library.schema.json"

var (
	// ErrUnknownShader is returned when a shader type has no declaration.
	ErrUnknownShader = errors.New("unknown shader type")
	// ErrInvalidLibrary is returned when a library file does not match the library schema.
	ErrInvalidLibrary = errors.New("invalid shader library")
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

type Parameter struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Default interface{} `yaml:"default"`
}

type Definition struct {
	Name       string      `yaml:"name"`
	Output     string      `yaml:"output"`
	Parameters []Parameter `yaml:"parameters"`
}

type libraryFile struct {
	Shaders []Definition `yaml:"shaders"`
}

// Library maps shader type identifiers to their parameter declarations.
type Library struct {
	defs map[string]*Definition
}

var typeShapes = map[string]graph.Shape{
	"float":   graph.ShapeFloat,
	"int":     graph.ShapeInt,
	"bool":    graph.ShapeBool,
	"string":  graph.ShapeString,
	"enum":    graph.ShapeString,
	"rgb":     graph.ShapeColor3,
	"rgba":    graph.ShapeColor4,
	"vector":  graph.ShapeVector3,
	"closure": graph.ShapeShader,
}

// ShapeOf maps a declaration type to a plug shape.
func ShapeOf(typ string) (graph.Shape, bool) {
	s, ok := typeShapes[typ]
	return s, ok
}

// Default returns the built-in Arnold library.
func Default() *Library {
	lib, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("shader: builtin library: %v", err))
	}
	return lib
}

// LoadFile reads a library from a YAML file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates data against the library schema and decodes it.
func Parse(data []byte) (*Library, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse shader library: %w", err)
	}
	lib := &Library{defs: make(map[string]*Definition, len(f.Shaders))}
	for i := range f.Shaders {
		def := &f.Shaders[i]
		lib.defs[def.Name] = def
	}
	return lib, nil
}

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validate checks a YAML library against the schema. The document goes through
// JSON first so the validator only sees JSON value types.
func validate(data []byte) error {
	compiled, err := loadCompiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile shader library schema: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse shader library: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize shader library: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize shader library: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}
	return nil
}

func (l *Library) Lookup(name string) (*Definition, bool) {
	def, ok := l.defs[name]
	return def, ok
}

// NewShader creates a shader node of shaderType under parent and loads its parameters.
// An unknown type still yields a node, without parameters, together with ErrUnknownShader.
func (l *Library) NewShader(g *graph.Graph, parent *graph.Node, name, shaderType string) (*graph.Node, error) {
	def, ok := l.Lookup(shaderType)
	if !ok {
		n := g.NewShader(parent, name, shaderType, graph.ShapeShader)
		return n, fmt.Errorf("%w: %q", ErrUnknownShader, shaderType)
	}

	out, _ := ShapeOf(def.Output)
	n := g.NewShader(parent, name, shaderType, out)
	params := n.Plug("parameters")
	for _, p := range def.Parameters {
		shape, _ := ShapeOf(p.Type)
		plug := g.AddPlug(n, params, p.Name, shape, graph.In)
		if v := defaultValue(shape, p.Default); v != nil {
			if err := g.SetValue(plug, v); err != nil {
				return n, fmt.Errorf("shader %q parameter %q default: %w", shaderType, p.Name, err)
			}
		}
	}
	return n, nil
}

// defaultValue converts a YAML scalar or list into the value type SetValue expects for shape.
func defaultValue(shape graph.Shape, raw interface{}) interface{} {
	if raw == nil {
		return nil
	}
	switch shape {
	case graph.ShapeFloat:
		if f, ok := toFloat(raw); ok {
			return f
		}
	case graph.ShapeInt:
		if f, ok := toFloat(raw); ok {
			return int(f)
		}
	case graph.ShapeBool, graph.ShapeString:
		return raw
	case graph.ShapeColor3, graph.ShapeColor4, graph.ShapeVector3:
		list, ok := raw.([]interface{})
		if !ok {
			return nil
		}
		out := make([]float64, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return nil
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}

func toFloat(raw interface{}) (float64, bool) {
	switch x := raw.(type) {
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
