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

type (
	// Value is a surface-language constant. Array values keep their
	// nested structure; the internaliser flattens them.
	Value interface {
		fmt.Stringer
		val()
		// Type returns the type of the value. Array dimensions are
		// reported as constants matching the value's actual extent.
		Type() Type
	}

	// IntValue is an integer constant.
	IntValue struct {
		Value int64
	}

	// FloatValue is a float constant.
	FloatValue struct {
		Value float64
	}

	// BoolValue is a boolean constant.
	BoolValue struct {
		Value bool
	}

	// TupleValue is a tuple of values.
	TupleValue struct {
		Elems []Value
	}

	// ArrayValue is an array of values. Elems may be empty, in which
	// case ElemType gives the element type the literal was declared
	// with.
	ArrayValue struct {
		Elems    []Value
		ElemType Type
	}
)

func (IntValue) val()   {}
func (FloatValue) val() {}
func (BoolValue) val()  {}
func (TupleValue) val() {}
func (ArrayValue) val() {}

// Type of the constant.
func (IntValue) Type() Type { return Int() }

// Type of the constant.
func (FloatValue) Type() Type { return Float() }

// Type of the constant.
func (BoolValue) Type() Type { return Bool() }

// Type of the tuple.
func (v TupleValue) Type() Type {
	elems := make([]Type, len(v.Elems))
	for i, el := range v.Elems {
		elems[i] = el.Type()
	}
	return TupleType{Elems: elems}
}

// Type of the array. The outer dimension is the number of elements;
// inner dimensions are taken from the first element.
func (v ArrayValue) Type() Type {
	elemType := v.ElemType
	if len(v.Elems) > 0 {
		elemType = v.Elems[0].Type()
	}
	dims := []Dim{ConstDim{Size: int64(len(v.Elems))}}
	if arr, ok := elemType.(ArrayType); ok {
		return ArrayType{Elem: arr.Elem, Dims: append(dims, arr.Dims...)}
	}
	return ArrayType{Elem: elemType, Dims: dims}
}

// String returns the source form of the constant.
func (v IntValue) String() string { return fmt.Sprint(v.Value) }

// String returns the source form of the constant.
func (v FloatValue) String() string { return fmt.Sprint(v.Value) }

// String returns the source form of the constant.
func (v BoolValue) String() string { return fmt.Sprint(v.Value) }

// String returns the source form of the tuple.
func (v TupleValue) String() string {
	return "{" + joinValues(v.Elems) + "}"
}

// String returns the source form of the array.
func (v ArrayValue) String() string {
	return "[" + joinValues(v.Elems) + "]"
}

func joinValues(vals []Value) string {
	ss := make([]string, len(vals))
	for i, v := range vals {
		ss[i] = v.String()
	}
	return strings.Join(ss, ",")
}
