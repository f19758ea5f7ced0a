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
)

type (
	// PrimValue is a scalar constant. Every scalar constant is also a
	// Value in its own right.
	PrimValue interface {
		Value
		primValue()
		// PrimType returns the scalar type of the constant.
		PrimType() PrimType
	}

	// IntValue is an integer constant.
	IntValue int64

	// FloatValue is a float constant.
	FloatValue float64

	// BoolValue is a boolean constant.
	BoolValue bool
)

func (IntValue) primValue()   {}
func (FloatValue) primValue() {}
func (BoolValue) primValue()  {}

// PrimType returns the scalar type of the constant.
func (IntValue) PrimType() PrimType { return Int }

// PrimType returns the scalar type of the constant.
func (FloatValue) PrimType() PrimType { return Float }

// PrimType returns the scalar type of the constant.
func (BoolValue) PrimType() PrimType { return Bool }

// String returns the constant in source form.
func (v IntValue) String() string { return fmt.Sprint(int64(v)) }

// String returns the constant in source form.
func (v FloatValue) String() string { return fmt.Sprint(float64(v)) }

// String returns the constant in source form.
func (v BoolValue) String() string { return fmt.Sprint(bool(v)) }

type (
	// Value is a flattened constant: a scalar or an array of scalars.
	// Arrays of tuples never occur; flattening has already split them
	// into one Value per component.
	Value interface {
		fmt.Stringer
		value()
		// Type returns the type of the value, with constant dimensions.
		Type() Type
	}

	// ArrayValue is an array constant. Elems holds the scalars in
	// row-major order; Dims the extent of every dimension.
	ArrayValue struct {
		Elem  PrimType
		Dims  []int64
		Elems []PrimValue
	}
)

func (IntValue) value()   {}
func (FloatValue) value() {}
func (BoolValue) value()  {}
func (ArrayValue) value() {}

// Type returns the scalar type.
func (v IntValue) Type() Type { return Int }

// Type returns the scalar type.
func (v FloatValue) Type() Type { return Float }

// Type returns the scalar type.
func (v BoolValue) Type() Type { return Bool }

// Type returns the array type with constant dimensions.
func (v ArrayValue) Type() Type {
	dims := make(Shape, len(v.Dims))
	for i, d := range v.Dims {
		dims[i] = Constant{Value: IntValue(d)}
	}
	return ArrayOf(v.Elem, dims)
}

// String returns the array constant in row-major bracketed form.
func (v ArrayValue) String() string {
	ss := make([]string, len(v.Elems))
	for i, el := range v.Elems {
		ss[i] = el.String()
	}
	return v.Type().String() + "{" + strings.Join(ss, ",") + "}"
}

// PrimValueEqual returns true if both constants are identical.
func PrimValueEqual(x, y PrimValue) bool {
	return x == y
}
