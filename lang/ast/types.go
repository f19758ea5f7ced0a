// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

import (
	"fmt"
	"strings"
)

// PrimKind enumerates the scalar types of the surface language.
type PrimKind int

const (
	// InvalidKind marks a type that could not be determined.
	InvalidKind PrimKind = iota
	// IntKind is the default signed integer type.
	IntKind
	// FloatKind is the default floating point type.
	FloatKind
	// BoolKind is the boolean type.
	BoolKind
)

var primKindNames = [...]string{
	InvalidKind: "invalid",
	IntKind:     "int",
	FloatKind:   "float",
	BoolKind:    "bool",
}

// String returns the source-level name of the kind.
func (k PrimKind) String() string {
	if k < 0 || int(k) >= len(primKindNames) {
		return fmt.Sprintf("primkind(%d)", int(k))
	}
	return primKindNames[k]
}

type (
	// Type is a surface-language type. Tuples may nest arbitrarily and
	// array element types may themselves be tuples: the internaliser is
	// responsible for flattening that structure away.
	Type interface {
		fmt.Stringer
		typ()
	}

	// PrimType is a scalar type.
	PrimType struct {
		Kind PrimKind
	}

	// TupleType is an ordered product of types.
	TupleType struct {
		Elems []Type
	}

	// ArrayType is an array whose element type may be a scalar or a
	// tuple. Dims has one entry per dimension, outermost first.
	ArrayType struct {
		Elem Type
		Dims []Dim
	}
)

func (PrimType) typ()  {}
func (TupleType) typ() {}
func (ArrayType) typ() {}

// String returns the source-level name of the type.
func (t PrimType) String() string { return t.Kind.String() }

// String returns the source form of the tuple type.
func (t TupleType) String() string {
	elems := make([]string, len(t.Elems))
	for i, el := range t.Elems {
		elems[i] = el.String()
	}
	return "{" + strings.Join(elems, ",") + "}"
}

// String returns the source form of the array type.
func (t ArrayType) String() string {
	var s strings.Builder
	for _, d := range t.Dims {
		s.WriteString("[")
		s.WriteString(d.String())
		s.WriteString("]")
	}
	s.WriteString(t.Elem.String())
	return s.String()
}

// Rank returns the number of dimensions of the array.
func (t ArrayType) Rank() int { return len(t.Dims) }

type (
	// Dim is one declared array dimension. A dimension is either a
	// constant, the name of a value or shape parameter in scope, or
	// left unknown for the compiler to infer at runtime.
	Dim interface {
		fmt.Stringer
		dim()
	}

	// ConstDim is a dimension fixed at a compile-time constant.
	ConstDim struct {
		Size int64
	}

	// NamedDim is a dimension given by a parameter name in scope.
	NamedDim struct {
		Name string
	}

	// AnyDim is an unknown dimension, determined at runtime.
	AnyDim struct{}
)

func (ConstDim) dim() {}
func (NamedDim) dim() {}
func (AnyDim) dim()   {}

// String returns the dimension as written in a type.
func (d ConstDim) String() string { return fmt.Sprint(d.Size) }

// String returns the dimension as written in a type.
func (d NamedDim) String() string { return d.Name }

// String returns the dimension as written in a type.
func (AnyDim) String() string { return "" }

// Int is a shortcut for the scalar integer type.
func Int() Type { return PrimType{Kind: IntKind} }

// Float is a shortcut for the scalar float type.
func Float() Type { return PrimType{Kind: FloatKind} }

// Bool is a shortcut for the scalar boolean type.
func Bool() Type { return PrimType{Kind: BoolKind} }

// Tuple is a shortcut to build a tuple type.
func Tuple(elems ...Type) Type { return TupleType{Elems: elems} }

// ArrayOf is a shortcut to build an array type with unknown dimensions.
func ArrayOf(elem Type, rank int) Type {
	dims := make([]Dim, rank)
	for i := range dims {
		dims[i] = AnyDim{}
	}
	return ArrayType{Elem: elem, Dims: dims}
}
