package mtlx

import (
	"fmt"
	"strconv"
	"strings"
)

type ValueType string

const (
	TypeFloat    ValueType = "float"
	TypeInteger  ValueType = "integer"
	TypeBoolean  ValueType = "boolean"
	TypeString   ValueType = "string"
	TypeFilename ValueType = "filename"
	TypeColor2   ValueType = "color2"
	TypeColor3   ValueType = "color3"
	TypeColor4   ValueType = "color4"
	TypeVector2  ValueType = "vector2"
	TypeVector3  ValueType = "vector3"
	TypeVector4  ValueType = "vector4"
	TypeMatrix33 ValueType = "matrix33"
	TypeMatrix44 ValueType = "matrix44"
)

var componentCounts = map[ValueType]int{
	TypeFloat:    1,
	TypeInteger:  1,
	TypeColor2:   2,
	TypeColor3:   3,
	TypeColor4:   4,
	TypeVector2:  2,
	TypeVector3:  3,
	TypeVector4:  4,
	TypeMatrix33: 9,
	TypeMatrix44: 16,
}

// Value is a typed literal taken from a "value" attribute.
// Numeric types fill Numbers, boolean fills Bool, everything else keeps Text.
type Value struct {
	Type    ValueType
	Numbers []float64
	Bool    bool
	Text    string
}

// ParseValue decodes raw according to typ. Unknown types are kept as text.
func ParseValue(typ ValueType, raw string) (*Value, error) {
	v := &Value{Type: typ}

	if typ == TypeBoolean {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q: %w", raw, err)
		}
		v.Bool = b
		return v, nil
	}

	want, numeric := componentCounts[typ]
	if !numeric {
		v.Text = raw
		return v, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("%s value %q has %d components, want %d", typ, raw, len(parts), want)
	}
	v.Numbers = make([]float64, 0, want)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if typ == TypeInteger {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q: %w", raw, err)
			}
			v.Numbers = append(v.Numbers, float64(n))
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", typ, raw, err)
		}
		v.Numbers = append(v.Numbers, f)
	}
	return v, nil
}

// IsNumeric reports whether the value carries float components.
func (v *Value) IsNumeric() bool {
	return v != nil && len(v.Numbers) > 0
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	switch {
	case v.Type == TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case len(v.Numbers) > 0:
		parts := make([]string, len(v.Numbers))
		for i, n := range v.Numbers {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return strings.Join(parts, ", ")
	default:
		return v.Text
	}
}
