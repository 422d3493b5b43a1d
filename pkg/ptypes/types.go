// Package ptypes defines the display type system for decompiled pseudocode.
// Types are descriptive only: the decompiler owns the real type information,
// this package keeps just enough structure to render a declaration and to
// compare a type's one-line display form by name.
package ptypes

import (
	"fmt"
	"strings"
)

// Type is the interface for all pseudocode types
type Type interface {
	implType()
	String() string
}

// Signedness represents signed/unsigned for integer types
type Signedness int

const (
	Signed Signedness = iota
	Unsigned
)

// IntSize represents the size of integer types
type IntSize int

const (
	I8 IntSize = iota
	I16
	I32
	I64
)

// Tvoid represents the void type
type Tvoid struct{}

// Tint represents an integer type
type Tint struct {
	Sign Signedness
	Size IntSize
}

// Tfloat represents a floating-point type
type Tfloat struct {
	Double bool
}

// Tptr represents a pointer type
type Tptr struct {
	Elem Type
}

// Tarray represents an array type
type Tarray struct {
	Elem Type
	Len  int
}

// Trecord represents a named struct/union type.
// Record types render as their bare name, the way the decompiler
// displays them in declarations (e.g. "CPPEH_RECORD").
type Trecord struct {
	Name string
}

func (Tvoid) implType()   {}
func (Tint) implType()    {}
func (Tfloat) implType()  {}
func (Tptr) implType()    {}
func (Tarray) implType()  {}
func (Trecord) implType() {}

func (Tvoid) String() string { return "void" }

func (t Tint) String() string {
	names := []string{"char", "short", "int", "__int64"}
	name := "int"
	if int(t.Size) < len(names) {
		name = names[t.Size]
	}
	if t.Sign == Unsigned {
		return "unsigned " + name
	}
	return name
}

func (t Tfloat) String() string {
	if t.Double {
		return "double"
	}
	return "float"
}

func (t Tptr) String() string { return t.Elem.String() + " *" }

func (t Tarray) String() string {
	return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)
}

func (t Trecord) String() string { return t.Name }

// Int returns the plain signed int type
func Int() Type { return Tint{Sign: Signed, Size: I32} }

// baseTypes maps display names to their scalar type
var baseTypes = map[string]Type{
	"void":             Tvoid{},
	"char":             Tint{Sign: Signed, Size: I8},
	"unsigned char":    Tint{Sign: Unsigned, Size: I8},
	"short":            Tint{Sign: Signed, Size: I16},
	"unsigned short":   Tint{Sign: Unsigned, Size: I16},
	"int":              Tint{Sign: Signed, Size: I32},
	"unsigned int":     Tint{Sign: Unsigned, Size: I32},
	"__int64":          Tint{Sign: Signed, Size: I64},
	"unsigned __int64": Tint{Sign: Unsigned, Size: I64},
	"float":            Tfloat{},
	"double":           Tfloat{Double: true},
}

// Parse converts a one-line display form back into a Type.
// Unrecognized names become named record types, matching how the
// decompiler names user and system structs.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}
	if strings.HasSuffix(s, "*") {
		elem, err := Parse(strings.TrimSuffix(s, "*"))
		if err != nil {
			return nil, err
		}
		return Tptr{Elem: elem}, nil
	}
	if t, ok := baseTypes[s]; ok {
		return t, nil
	}
	return Trecord{Name: s}, nil
}
