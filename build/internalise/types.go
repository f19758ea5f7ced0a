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

package internalise

import (
	"github.com/pkg/errors"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
)

// Type projection: a surface type denoting a tuple becomes the ordered
// sequence of internal scalar/array types of its leaves, flattened
// left-to-right, depth-first. An array of tuples becomes one array per
// tuple leaf, each carrying the array's dimensions in front of the leaf's
// own. Projection is pure: it never inspects names or bindings; what a
// dimension lowers to is decided by the dimension converter the caller
// provides.

// dimConv converts one surface dimension into an existential dimension.
type dimConv func(d ast.Dim) (ir.ExtDim, error)

func internalisePrimKind(k ast.PrimKind) (ir.PrimType, error) {
	switch k {
	case ast.IntKind:
		return ir.Int, nil
	case ast.FloatKind:
		return ir.Float, nil
	case ast.BoolKind:
		return ir.Bool, nil
	}
	return ir.Invalid, errors.Errorf("cannot internalise scalar kind %s", k.String())
}

// flattenType projects a surface type under the given dimension converter.
func flattenType(t ast.Type, dim dimConv) ([]ir.ExtType, error) {
	switch tt := t.(type) {
	case ast.PrimType:
		pt, err := internalisePrimKind(tt.Kind)
		if err != nil {
			return nil, err
		}
		return []ir.ExtType{{Elem: pt}}, nil
	case ast.TupleType:
		var leaves []ir.ExtType
		for _, el := range tt.Elems {
			sub, err := flattenType(el, dim)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, sub...)
		}
		return leaves, nil
	case ast.ArrayType:
		elems, err := flattenType(tt.Elem, dim)
		if err != nil {
			return nil, err
		}
		dims := make(ir.ExtShape, len(tt.Dims))
		for i, d := range tt.Dims {
			if dims[i], err = dim(d); err != nil {
				return nil, err
			}
		}
		for i, leaf := range elems {
			shape := make(ir.ExtShape, 0, len(dims)+len(leaf.Shape))
			shape = append(shape, dims...)
			shape = append(shape, leaf.Shape...)
			elems[i] = ir.ExtType{Elem: leaf.Elem, Shape: shape}
		}
		return elems, nil
	}
	return nil, errors.Errorf("cannot internalise type %T", t)
}

// extDimConv returns a converter for contexts with an existential shape
// context: unknown dimensions and names the resolver cannot supply are
// bound to positional existential indices, one index per distinct name.
// resolve may be nil when no names are in scope.
func extDimConv(resolve func(name string) (ir.SubExp, bool)) dimConv {
	next := 0
	byName := map[string]int{}
	return func(d ast.Dim) (ir.ExtDim, error) {
		switch dt := d.(type) {
		case ast.ConstDim:
			return ir.Free{D: ir.Constant{Value: ir.IntValue(dt.Size)}}, nil
		case ast.NamedDim:
			if resolve != nil {
				if se, ok := resolve(dt.Name); ok {
					return ir.Free{D: se}, nil
				}
			}
			k, seen := byName[dt.Name]
			if !seen {
				k = next
				next++
				byName[dt.Name] = k
			}
			return ir.Ext{K: k}, nil
		case ast.AnyDim:
			k := next
			next++
			return ir.Ext{K: k}, nil
		}
		return nil, errors.Errorf("cannot internalise dimension %T", d)
	}
}

// internaliseType projects a surface type with no names in scope.
func internaliseType(t ast.Type) ([]ir.ExtType, error) {
	return flattenType(t, extDimConv(nil))
}

// concreteTypes converts projected types whose dimensions are all free.
func concreteTypes(ets []ir.ExtType) ([]ir.Type, error) {
	ts := make([]ir.Type, len(ets))
	for i, et := range ets {
		t, err := et.ConcreteType()
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return ts, nil
}

func identTypes(ids []ir.Ident) []ir.Type {
	ts := make([]ir.Type, len(ids))
	for i, id := range ids {
		ts[i] = id.Typ
	}
	return ts
}

func subExpTypes(ses []ir.SubExp) []ir.Type {
	ts := make([]ir.Type, len(ses))
	for i, se := range ses {
		ts[i] = se.Type()
	}
	return ts
}

// surfaceLeafCount returns how many internal values a surface type
// flattens into.
func surfaceLeafCount(t ast.Type) int {
	switch tt := t.(type) {
	case ast.TupleType:
		n := 0
		for _, el := range tt.Elems {
			n += surfaceLeafCount(el)
		}
		return n
	case ast.ArrayType:
		return surfaceLeafCount(tt.Elem)
	}
	return 1
}
