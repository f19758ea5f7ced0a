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
)

// The body  let a = x + 1 in a  with x substituted must rename a: the
// same body is spliced in several places and its bindings may not
// collide.
func TestSubstituteBodyRenamesBindings(t *testing.T) {
	names := NewNameSource(10)
	x := intIdent("x", 0)
	a := intIdent("a", 1)
	body := &Body{
		Bindings: []Binding{{
			Pat: []Ident{a},
			Exp: BinOp{Op: Plus, X: x.Ref(), Y: constant(1), T: Int},
		}},
		Result: Result{Values: []SubExp{a.Ref()}},
	}

	out := SubstituteBody(body, DimSubst{x.Name: constant(3)}, names)
	if len(out.Bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(out.Bindings))
	}
	bnd := out.Bindings[0]
	if bnd.Pat[0].Name == a.Name {
		t.Errorf("binding kept name %s, want a fresh name", a.Name)
	}
	op, ok := bnd.Exp.(BinOp)
	if !ok {
		t.Fatalf("binding expression is %T, want BinOp", bnd.Exp)
	}
	if !SubExpEqual(op.X, constant(3)) {
		t.Errorf("operand is %s, want 3", op.X)
	}
	res, ok := out.Result.Values[0].(Var)
	if !ok || res.I.Name != bnd.Pat[0].Name {
		t.Errorf("result references %s, want the renamed binding %s", out.Result.Values[0], bnd.Pat[0].Name)
	}

	// A second substitution of the same body must rename differently.
	again := SubstituteBody(body, DimSubst{x.Name: constant(3)}, names)
	if again.Bindings[0].Pat[0].Name == bnd.Pat[0].Name {
		t.Error("two substitutions produced the same binding name")
	}
}

func TestSubstituteBodyLeavesFreeNames(t *testing.T) {
	x := intIdent("x", 0)
	y := intIdent("y", 1)
	body := &Body{Result: Result{Values: []SubExp{x.Ref(), y.Ref()}}}
	out := SubstituteBody(body, DimSubst{x.Name: constant(8)}, NewNameSource(2))
	if !SubExpEqual(out.Result.Values[0], constant(8)) {
		t.Errorf("substituted result is %s, want 8", out.Result.Values[0])
	}
	if !SubExpEqual(out.Result.Values[1], y.Ref()) {
		t.Errorf("untouched result is %s, want %s", out.Result.Values[1], y.Ref())
	}
}
