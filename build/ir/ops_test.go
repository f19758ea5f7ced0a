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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// A map lambda producing per-element shapes: the result dimension names
// the lambda's own parameter, which is meaningless outside the map, so
// the result type must carry an existential dimension instead.
func TestExpTypesMapHidesLambdaDims(t *testing.T) {
	n := intIdent("n", 0)
	a := arrayIdent("a", 1, n.Ref())
	x := intIdent("x", 2)
	row := arrayIdent("row", 3, x.Ref())
	fun := &Lambda{
		Params: []Param{x},
		Body: &Body{
			Bindings: []Binding{{Pat: []Ident{row}, Exp: Iota{N: x.Ref()}}},
			Result:   Result{Values: []SubExp{row.Ref()}},
		},
		Ret: []Type{row.Typ},
	}

	ts, err := ExpTypes(Map{Fun: fun, Arrays: []Ident{a}})
	if err != nil {
		t.Fatal(err)
	}
	want := []ExtType{{Elem: Int, Shape: ExtShape{Free{D: n.Ref()}, Ext{K: 0}}}}
	if diff := cmp.Diff(want, ts); diff != "" {
		t.Errorf("ExpTypes() mismatch (-want +got):\n%s", diff)
	}
}

// The same discipline for a fold whose result length depends on the
// element parameter.
func TestExpTypesReduceHidesLambdaDims(t *testing.T) {
	n := intIdent("n", 0)
	a := arrayIdent("a", 1, n.Ref())
	acc := intIdent("acc", 2)
	x := intIdent("x", 3)
	fun := &Lambda{
		Params: []Param{acc, x},
		Body:   &Body{Result: Result{Values: []SubExp{x.Ref()}}},
		Ret:    []Type{ArrayOf(Int, Shape{x.Ref()})},
	}

	ts, err := ExpTypes(Reduce{Fun: fun, Neutral: []SubExp{constant(0)}, Arrays: []Ident{a}})
	if err != nil {
		t.Fatal(err)
	}
	want := []ExtType{{Elem: Int, Shape: ExtShape{Ext{K: 0}}}}
	if diff := cmp.Diff(want, ts); diff != "" {
		t.Errorf("ExpTypes() mismatch (-want +got):\n%s", diff)
	}
}

// Dimensions naming identifiers of the enclosing scope stay free: only
// lambda-local names are existentialised.
func TestExpTypesMapKeepsOuterDims(t *testing.T) {
	n := intIdent("n", 0)
	m := intIdent("m", 1)
	a := arrayIdent("a", 2, n.Ref())
	x := intIdent("x", 3)
	fun := &Lambda{
		Params: []Param{x},
		Body:   &Body{Result: Result{Values: []SubExp{x.Ref()}}},
		Ret:    []Type{ArrayOf(Int, Shape{m.Ref()})},
	}

	ts, err := ExpTypes(Map{Fun: fun, Arrays: []Ident{a}})
	if err != nil {
		t.Fatal(err)
	}
	want := []ExtType{{Elem: Int, Shape: ExtShape{Free{D: n.Ref()}, Free{D: m.Ref()}}}}
	if diff := cmp.Diff(want, ts); diff != "" {
		t.Errorf("ExpTypes() mismatch (-want +got):\n%s", diff)
	}
}
