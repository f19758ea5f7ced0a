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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
)

func surfaceInts(ns ...int64) ast.Value {
	elems := make([]ast.Value, len(ns))
	for i, n := range ns {
		elems[i] = ast.IntValue{Value: n}
	}
	return ast.ArrayValue{Elems: elems, ElemType: ast.Int()}
}

func TestInternaliseScalar(t *testing.T) {
	got, err := internaliseValue(ast.IntValue{Value: 42})
	if err != nil {
		t.Fatal(err)
	}
	want := []ir.Value{ir.IntValue(42)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("internaliseValue() mismatch (-want +got):\n%s", diff)
	}
}

func TestInternaliseTupleFlattens(t *testing.T) {
	v := ast.TupleValue{Elems: []ast.Value{
		ast.IntValue{Value: 1},
		ast.TupleValue{Elems: []ast.Value{
			ast.BoolValue{Value: true},
			ast.FloatValue{Value: 2.5},
		}},
	}}
	got, err := internaliseValue(v)
	if err != nil {
		t.Fatal(err)
	}
	want := []ir.Value{ir.IntValue(1), ir.BoolValue(true), ir.FloatValue(2.5)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("internaliseValue() mismatch (-want +got):\n%s", diff)
	}
}

// An array of tuples flattens into one array per tuple component, each
// carrying the array's shape.
func TestInternaliseArrayOfTuples(t *testing.T) {
	v := ast.ArrayValue{
		Elems: []ast.Value{
			ast.TupleValue{Elems: []ast.Value{ast.IntValue{Value: 1}, ast.BoolValue{Value: true}}},
			ast.TupleValue{Elems: []ast.Value{ast.IntValue{Value: 2}, ast.BoolValue{Value: false}}},
		},
		ElemType: ast.Tuple(ast.Int(), ast.Bool()),
	}
	got, err := internaliseValue(v)
	if err != nil {
		t.Fatal(err)
	}
	want := []ir.Value{
		ir.ArrayValue{Elem: ir.Int, Dims: []int64{2}, Elems: []ir.PrimValue{ir.IntValue(1), ir.IntValue(2)}},
		ir.ArrayValue{Elem: ir.Bool, Dims: []int64{2}, Elems: []ir.PrimValue{ir.BoolValue(true), ir.BoolValue(false)}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("internaliseValue() mismatch (-want +got):\n%s", diff)
	}
}

func TestInternaliseRaggedArray(t *testing.T) {
	v := ast.ArrayValue{
		Elems: []ast.Value{
			surfaceInts(1, 2),
			surfaceInts(3),
		},
		ElemType: ast.ArrayOf(ast.Int(), 1),
	}
	if _, err := internaliseValue(v); err == nil {
		t.Error("internaliseValue() = nil error on a ragged array, want error")
	}
}

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  ast.Type
		v    ast.Value
	}{
		{
			name: "scalar",
			typ:  ast.Int(),
			v:    ast.IntValue{Value: 7},
		},
		{
			name: "tuple",
			typ:  ast.Tuple(ast.Int(), ast.Bool()),
			v: ast.TupleValue{Elems: []ast.Value{
				ast.IntValue{Value: 7},
				ast.BoolValue{Value: false},
			}},
		},
		{
			name: "array",
			typ:  ast.ArrayOf(ast.Int(), 1),
			v:    surfaceInts(1, 2, 3),
		},
		{
			name: "array of tuples",
			typ:  ast.ArrayOf(ast.Tuple(ast.Int(), ast.Float()), 1),
			v: ast.ArrayValue{
				Elems: []ast.Value{
					ast.TupleValue{Elems: []ast.Value{ast.IntValue{Value: 1}, ast.FloatValue{Value: 0.5}}},
					ast.TupleValue{Elems: []ast.Value{ast.IntValue{Value: 2}, ast.FloatValue{Value: 1.5}}},
				},
				ElemType: ast.Tuple(ast.Int(), ast.Float()),
			},
		},
		{
			name: "nested array",
			typ:  ast.ArrayOf(ast.Int(), 2),
			v: ast.ArrayValue{
				Elems:    []ast.Value{surfaceInts(1, 2), surfaceInts(3, 4)},
				ElemType: ast.ArrayOf(ast.Int(), 1),
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			flat, err := internaliseValue(test.v)
			if err != nil {
				t.Fatal(err)
			}
			back, err := UnflattenValue(test.typ, flat)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.v, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
