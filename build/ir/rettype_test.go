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

func intIdent(base string, tag int) Ident {
	return Ident{Name: VName{Base: base, Tag: tag}, Typ: Int}
}

func arrayIdent(base string, tag int, dims ...SubExp) Ident {
	return Ident{Name: VName{Base: base, Tag: tag}, Typ: ArrayOf(Int, dims)}
}

func constant(i int64) SubExp {
	return Constant{Value: IntValue(i)}
}

func TestApplyRetTypeDependentShape(t *testing.T) {
	n := intIdent("n", 0)
	x := Ident{Name: VName{Base: "x", Tag: 1}, Typ: ArrayOf(Int, Shape{n.Ref()})}
	rts := []ExtType{{Elem: Int, Shape: ExtShape{Free{D: n.Ref()}}}}

	arg := arrayIdent("a", 2, constant(5))
	args := []CallArg{
		{Value: constant(5), Type: Int},
		{Value: arg.Ref(), Type: arg.Typ},
	}
	applied, ok := ApplyRetType(rts, []Param{n, x}, args)
	if !ok {
		t.Fatal("ApplyRetType() not applicable, want applicable")
	}
	want := []ExtType{{Elem: Int, Shape: ExtShape{Free{D: constant(5)}}}}
	if diff := cmp.Diff(want, applied); diff != "" {
		t.Errorf("ApplyRetType() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRetTypeKeepsExistentials(t *testing.T) {
	n := intIdent("n", 0)
	x := Ident{Name: VName{Base: "x", Tag: 1}, Typ: ArrayOf(Int, Shape{n.Ref()})}
	rts := []ExtType{{Elem: Float, Shape: ExtShape{Ext{K: 0}, Free{D: n.Ref()}}}}

	arg := arrayIdent("a", 2, constant(3))
	args := []CallArg{
		{Value: constant(3), Type: Int},
		{Value: arg.Ref(), Type: arg.Typ},
	}
	applied, ok := ApplyRetType(rts, []Param{n, x}, args)
	if !ok {
		t.Fatal("ApplyRetType() not applicable, want applicable")
	}
	want := []ExtType{{Elem: Float, Shape: ExtShape{Ext{K: 0}, Free{D: constant(3)}}}}
	if diff := cmp.Diff(want, applied); diff != "" {
		t.Errorf("ApplyRetType() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRetTypeArityMismatch(t *testing.T) {
	n := intIdent("n", 0)
	if _, ok := ApplyRetType(nil, []Param{n}, nil); ok {
		t.Error("ApplyRetType() applicable with missing arguments, want not applicable")
	}
}

func TestApplyRetTypeRankMismatch(t *testing.T) {
	n := intIdent("n", 0)
	x := Ident{Name: VName{Base: "x", Tag: 1}, Typ: ArrayOf(Int, Shape{n.Ref()})}
	args := []CallArg{
		{Value: constant(4), Type: Int},
		{Value: constant(4), Type: Int},
	}
	if _, ok := ApplyRetType(nil, []Param{n, x}, args); ok {
		t.Error("ApplyRetType() applicable with a scalar for an array, want not applicable")
	}
}

func TestApplyRetTypeFixedDimMismatch(t *testing.T) {
	x := Ident{Name: VName{Base: "x", Tag: 0}, Typ: ArrayOf(Int, Shape{constant(5)})}
	arg := arrayIdent("a", 1, constant(6))
	args := []CallArg{{Value: arg.Ref(), Type: arg.Typ}}
	if _, ok := ApplyRetType(nil, []Param{x}, args); ok {
		t.Error("ApplyRetType() applicable with mismatched fixed dimension, want not applicable")
	}
}

func TestApplyRetTypeUnresolvedDimUnconstrained(t *testing.T) {
	// The parameter's dimension names an identifier that is not itself a
	// parameter: it constrains nothing.
	m := intIdent("m", 9)
	x := Ident{Name: VName{Base: "x", Tag: 0}, Typ: ArrayOf(Int, Shape{m.Ref()})}
	arg := arrayIdent("a", 1, constant(7))
	args := []CallArg{{Value: arg.Ref(), Type: arg.Typ}}
	if _, ok := ApplyRetType(nil, []Param{x}, args); !ok {
		t.Error("ApplyRetType() not applicable with an unresolved dimension, want applicable")
	}
}

func TestSubstituteExtTypeIdempotent(t *testing.T) {
	n := intIdent("n", 0)
	et := ExtType{Elem: Int, Shape: ExtShape{Free{D: n.Ref()}, Ext{K: 0}}}
	s := DimSubst{n.Name: constant(2)}
	once := SubstituteExtType(et, s)
	twice := SubstituteExtType(once, s)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second substitution changed the type (-once +twice):\n%s", diff)
	}
}
