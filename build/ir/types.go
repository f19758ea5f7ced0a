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

package ir

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// PrimType is a scalar type of the internal representation. Cert is the
// type of certificates: values witnessing that a runtime check succeeded.
type PrimType int

const (
	// Invalid marks a type that could not be computed.
	Invalid PrimType = iota
	// Int is the signed integer type.
	Int
	// Float is the floating point type.
	Float
	// Bool is the boolean type.
	Bool
	// Cert is the type of certificates.
	Cert
)

var primTypeNames = [...]string{
	Invalid: "invalid",
	Int:     "int",
	Float:   "float",
	Bool:    "bool",
	Cert:    "cert",
}

func (t PrimType) typ() {}

// ElemType returns the scalar type itself.
func (t PrimType) ElemType() PrimType { return t }

// Rank of a scalar is zero.
func (t PrimType) Rank() int { return 0 }

// String returns the name of the type.
func (t PrimType) String() string {
	if t < 0 || int(t) >= len(primTypeNames) {
		return fmt.Sprintf("primtype(%d)", int(t))
	}
	return primTypeNames[t]
}

// Shape is the ordered list of dimensions of a concrete array type,
// outermost first. Every dimension is a sub-expression: either a constant
// or a variable bound earlier.
type Shape []SubExp

// String returns the shape in bracketed form.
func (s Shape) String() string {
	var b strings.Builder
	for _, d := range s {
		b.WriteString("[")
		b.WriteString(d.String())
		b.WriteString("]")
	}
	return b.String()
}

// Equal returns true if both shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i, d := range s {
		if !SubExpEqual(d, o[i]) {
			return false
		}
	}
	return true
}

type (
	// Type is a concrete internal type: a scalar or an array whose every
	// dimension is a sub-expression.
	Type interface {
		fmt.Stringer
		typ()
		// ElemType returns the scalar element type.
		ElemType() PrimType
		// Rank returns the number of dimensions.
		Rank() int
	}

	// ArrayType is an array with a concrete shape. Elem is always a
	// scalar: flattening guarantees there are no arrays of tuples.
	ArrayType struct {
		Elem PrimType
		Dims Shape
	}
)

func (ArrayType) typ() {}

// ElemType returns the scalar element type.
func (t ArrayType) ElemType() PrimType { return t.Elem }

// Rank returns the number of dimensions.
func (t ArrayType) Rank() int { return len(t.Dims) }

// String returns the type with its shape.
func (t ArrayType) String() string {
	return t.Dims.String() + t.Elem.String()
}

// ArrayOf returns an array type, or the scalar itself for an empty shape.
func ArrayOf(elem PrimType, dims Shape) Type {
	if len(dims) == 0 {
		return elem
	}
	return ArrayType{Elem: elem, Dims: dims}
}

// RowType returns the type of t with its n outermost dimensions dropped.
func RowType(t Type, n int) (Type, error) {
	if n == 0 {
		return t, nil
	}
	arr, ok := t.(ArrayType)
	if !ok || len(arr.Dims) < n {
		return Invalid, errors.Errorf("cannot drop %d dimension(s) from type %s", n, t.String())
	}
	return ArrayOf(arr.Elem, arr.Dims[n:]), nil
}

// OuterDim returns the outermost dimension of an array type.
func OuterDim(t Type) (SubExp, error) {
	arr, ok := t.(ArrayType)
	if !ok {
		return nil, errors.Errorf("type %s has no outer dimension", t.String())
	}
	return arr.Dims[0], nil
}

// TypeEqual returns true if both types have the same element type, rank and
// dimensions.
func TypeEqual(t, o Type) bool {
	if t.ElemType() != o.ElemType() || t.Rank() != o.Rank() {
		return false
	}
	ta, ok := t.(ArrayType)
	if !ok {
		return true
	}
	return ta.Dims.Equal(o.(ArrayType).Dims)
}

type (
	// ExtDim is one dimension of an existential shape: either free,
	// carrying a concrete sub-expression, or bound to an existential
	// index that the caller resolves after the value is produced.
	ExtDim interface {
		fmt.Stringer
		extDim()
	}

	// Free is a dimension with a known sub-expression.
	Free struct {
		D SubExp
	}

	// Ext is a dimension bound to the positional existential index K.
	Ext struct {
		K int
	}
)

func (Free) extDim() {}
func (Ext) extDim()  {}

// String returns the dimension sub-expression.
func (d Free) String() string { return d.D.String() }

// String returns the existential index in ?k form.
func (d Ext) String() string { return fmt.Sprintf("?%d", d.K) }

// ExtShape is the shape of an existential type, outermost dimension first.
type ExtShape []ExtDim

// String returns the shape in bracketed form.
func (s ExtShape) String() string {
	var b strings.Builder
	for _, d := range s {
		b.WriteString("[")
		b.WriteString(d.String())
		b.WriteString("]")
	}
	return b.String()
}

// ExtType is a type whose array dimensions may be existential. It is the
// form in which return types of functions, branches and loops are declared:
// dimensions the callee cannot name are bound to positional indices and
// materialised at each use site.
type ExtType struct {
	Elem  PrimType
	Shape ExtShape
}

// String returns the type with its existential shape.
func (t ExtType) String() string {
	return t.Shape.String() + t.Elem.String()
}

// Rank returns the number of dimensions.
func (t ExtType) Rank() int { return len(t.Shape) }

// StaticExtType lifts a concrete type into an existential type with every
// dimension free.
func StaticExtType(t Type) ExtType {
	et := ExtType{Elem: t.ElemType()}
	if arr, ok := t.(ArrayType); ok {
		for _, d := range arr.Dims {
			et.Shape = append(et.Shape, Free{D: d})
		}
	}
	return et
}

// StaticExtTypes lifts a list of concrete types.
func StaticExtTypes(ts []Type) []ExtType {
	ets := make([]ExtType, len(ts))
	for i, t := range ts {
		ets[i] = StaticExtType(t)
	}
	return ets
}

// ConcreteType converts an existential type whose dimensions are all free
// into a concrete type.
func (t ExtType) ConcreteType() (Type, error) {
	dims := make(Shape, 0, len(t.Shape))
	for _, d := range t.Shape {
		free, ok := d.(Free)
		if !ok {
			return Invalid, errors.Errorf("type %s has an unresolved existential dimension", t.String())
		}
		dims = append(dims, free.D)
	}
	return ArrayOf(t.Elem, dims), nil
}

// GeneraliseTypes unifies two lists of concrete types of the same length
// into existential return types: dimensions that agree stay free, the rest
// become existentially bound. It fails if ranks or element types disagree.
func GeneraliseTypes(xs, ys []Type) ([]ExtType, error) {
	if len(xs) != len(ys) {
		return nil, errors.Errorf("cannot unify %d type(s) with %d type(s)", len(xs), len(ys))
	}
	next := 0
	ets := make([]ExtType, len(xs))
	for i, x := range xs {
		y := ys[i]
		if x.ElemType() != y.ElemType() || x.Rank() != y.Rank() {
			return nil, errors.Errorf("cannot unify type %s with type %s", x.String(), y.String())
		}
		et := ExtType{Elem: x.ElemType()}
		xa, ok := x.(ArrayType)
		if ok {
			ya := y.(ArrayType)
			for k, d := range xa.Dims {
				if SubExpEqual(d, ya.Dims[k]) {
					et.Shape = append(et.Shape, Free{D: d})
				} else {
					et.Shape = append(et.Shape, Ext{K: next})
					next++
				}
			}
		}
		ets[i] = et
	}
	return ets, nil
}
