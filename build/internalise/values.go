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

// Value projection: the value-level counterpart of flattenType. A surface
// value flattens into one internal constant per tuple leaf; an array of
// tuples becomes one array constant per component. Projection fails with
// an invalid-value error when the value does not match its own shape, such
// as a ragged array literal.

func internalisePrimValue(v ast.Value) (ir.PrimValue, bool) {
	switch vt := v.(type) {
	case ast.IntValue:
		return ir.IntValue(vt.Value), true
	case ast.FloatValue:
		return ir.FloatValue(vt.Value), true
	case ast.BoolValue:
		return ir.BoolValue(vt.Value), true
	}
	return nil, false
}

// internaliseValue projects a surface value into its flattened internal
// constants.
func internaliseValue(v ast.Value) ([]ir.Value, error) {
	switch vt := v.(type) {
	case ast.TupleValue:
		var vals []ir.Value
		for _, el := range vt.Elems {
			sub, err := internaliseValue(el)
			if err != nil {
				return nil, err
			}
			vals = append(vals, sub...)
		}
		return vals, nil
	case ast.ArrayValue:
		return internaliseArrayValue(vt)
	default:
		pv, ok := internalisePrimValue(v)
		if !ok {
			return nil, errors.Errorf("cannot internalise value %s", v.String())
		}
		return []ir.Value{pv}, nil
	}
}

func internaliseArrayValue(v ast.ArrayValue) ([]ir.Value, error) {
	if len(v.Elems) == 0 {
		return emptyArrayValue(v)
	}
	var comps [][]ir.Value
	for _, el := range v.Elems {
		sub, err := internaliseValue(el)
		if err != nil {
			return nil, err
		}
		comps = append(comps, sub)
		if len(sub) != len(comps[0]) {
			return nil, errors.Errorf("value %s has elements of inconsistent arity", v.String())
		}
	}
	out := make([]ir.Value, len(comps[0]))
	for c := range out {
		col := make([]ir.Value, len(comps))
		for i, comp := range comps {
			col[i] = comp[c]
		}
		joined, err := joinArrayComponent(col)
		if err != nil {
			return nil, errors.WithMessagef(err, "in value %s", v.String())
		}
		out[c] = joined
	}
	return out, nil
}

// joinArrayComponent stacks the per-element values of one component into
// a single array constant. All elements must agree in type and shape.
func joinArrayComponent(col []ir.Value) (ir.Value, error) {
	switch first := col[0].(type) {
	case ir.ArrayValue:
		dims := append([]int64{int64(len(col))}, first.Dims...)
		var elems []ir.PrimValue
		for _, v := range col {
			arr, ok := v.(ir.ArrayValue)
			if !ok || arr.Elem != first.Elem || !int64sEqual(arr.Dims, first.Dims) {
				return nil, errors.New("array elements have inconsistent shapes")
			}
			elems = append(elems, arr.Elems...)
		}
		return ir.ArrayValue{Elem: first.Elem, Dims: dims, Elems: elems}, nil
	default:
		pt := col[0].(ir.PrimValue).PrimType()
		elems := make([]ir.PrimValue, len(col))
		for i, v := range col {
			pv, ok := v.(ir.PrimValue)
			if !ok || pv.PrimType() != pt {
				return nil, errors.New("array elements have inconsistent types")
			}
			elems[i] = pv
		}
		return ir.ArrayValue{Elem: pt, Dims: []int64{int64(len(col))}, Elems: elems}, nil
	}
}

func int64sEqual(x, y []int64) bool {
	if len(x) != len(y) {
		return false
	}
	for i, v := range x {
		if v != y[i] {
			return false
		}
	}
	return true
}

// emptyArrayValue builds the flattened constants of an empty array
// literal from its declared element type, which must have constant
// dimensions.
func emptyArrayValue(v ast.ArrayValue) ([]ir.Value, error) {
	constDim := func(d ast.Dim) (ir.ExtDim, error) {
		c, ok := d.(ast.ConstDim)
		if !ok {
			return nil, errors.Errorf("empty array of type %s has a non-constant dimension", v.ElemType.String())
		}
		return ir.Free{D: ir.Constant{Value: ir.IntValue(c.Size)}}, nil
	}
	leaves, err := flattenType(v.ElemType, constDim)
	if err != nil {
		return nil, err
	}
	vals := make([]ir.Value, len(leaves))
	for i, leaf := range leaves {
		dims := []int64{0}
		for _, d := range leaf.Shape {
			c := d.(ir.Free).D.(ir.Constant)
			dims = append(dims, int64(c.Value.(ir.IntValue)))
		}
		vals[i] = ir.ArrayValue{Elem: leaf.Elem, Dims: dims}
	}
	return vals, nil
}

// UnflattenValue reassembles a surface value from flattened internal
// constants according to the tuple structure of a surface type. It is the
// inverse of value projection and is used to report constant results in
// surface form.
func UnflattenValue(t ast.Type, vals []ir.Value) (ast.Value, error) {
	v, rest, err := unflattenValue(t, vals)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Errorf("%d flattened value(s) left over after type %s", len(rest), t.String())
	}
	return v, nil
}

func unflattenValue(t ast.Type, vals []ir.Value) (ast.Value, []ir.Value, error) {
	switch tt := t.(type) {
	case ast.TupleType:
		elems := make([]ast.Value, len(tt.Elems))
		for i, el := range tt.Elems {
			var err error
			if elems[i], vals, err = unflattenValue(el, vals); err != nil {
				return nil, nil, err
			}
		}
		return ast.TupleValue{Elems: elems}, vals, nil
	case ast.ArrayType:
		return unflattenArrayValue(tt, vals)
	default:
		if len(vals) == 0 {
			return nil, nil, errors.Errorf("no flattened value left for type %s", t.String())
		}
		pv, ok := vals[0].(ir.PrimValue)
		if !ok {
			return nil, nil, errors.Errorf("expected a scalar for type %s, got %s", t.String(), vals[0].String())
		}
		v, err := surfacePrimValue(pv)
		if err != nil {
			return nil, nil, err
		}
		return v, vals[1:], nil
	}
}

func unflattenArrayValue(t ast.ArrayType, vals []ir.Value) (ast.Value, []ir.Value, error) {
	n := surfaceLeafCount(t)
	if len(vals) < n {
		return nil, nil, errors.Errorf("not enough flattened values for type %s", t.String())
	}
	comps, rest := vals[:n], vals[n:]
	arrs := make([]ir.ArrayValue, n)
	for i, v := range comps {
		arr, ok := v.(ir.ArrayValue)
		if !ok {
			return nil, nil, errors.Errorf("expected an array for type %s, got %s", t.String(), v.String())
		}
		arrs[i] = arr
	}
	outer := arrs[0].Dims[0]
	elemType := rowSurfaceType(t)
	elems := make([]ast.Value, outer)
	for j := int64(0); j < outer; j++ {
		rows := make([]ir.Value, n)
		for i, arr := range arrs {
			row, err := arrayRow(arr, j)
			if err != nil {
				return nil, nil, err
			}
			rows[i] = row
		}
		el, err := UnflattenValue(elemType, rows)
		if err != nil {
			return nil, nil, err
		}
		elems[j] = el
	}
	return ast.ArrayValue{Elems: elems, ElemType: elemType}, rest, nil
}

// rowSurfaceType returns the surface type of one element of an array type.
func rowSurfaceType(t ast.ArrayType) ast.Type {
	if len(t.Dims) == 1 {
		return t.Elem
	}
	return ast.ArrayType{Elem: t.Elem, Dims: t.Dims[1:]}
}

// arrayRow extracts element j of the outer dimension of an array constant.
func arrayRow(arr ir.ArrayValue, j int64) (ir.Value, error) {
	if j < 0 || j >= arr.Dims[0] {
		return nil, errors.Errorf("row %d out of bounds for %s", j, arr.String())
	}
	if len(arr.Dims) == 1 {
		return arr.Elems[j].(ir.Value), nil
	}
	rowSize := int64(1)
	for _, d := range arr.Dims[1:] {
		rowSize *= d
	}
	return ir.ArrayValue{
		Elem:  arr.Elem,
		Dims:  arr.Dims[1:],
		Elems: arr.Elems[j*rowSize : (j+1)*rowSize],
	}, nil
}

func surfacePrimValue(pv ir.PrimValue) (ast.Value, error) {
	switch v := pv.(type) {
	case ir.IntValue:
		return ast.IntValue{Value: int64(v)}, nil
	case ir.FloatValue:
		return ast.FloatValue{Value: float64(v)}, nil
	case ir.BoolValue:
		return ast.BoolValue{Value: bool(v)}, nil
	}
	return nil, errors.Errorf("value %s has no surface form", pv.String())
}
