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
	"strings"
	"testing"
)

func TestCheckFunOK(t *testing.T) {
	x := intIdent("x", 0)
	y := intIdent("y", 1)
	f := &FunDecl{
		Name:   "inc",
		Ret:    []ExtType{PrimRetType(Int)},
		Params: []Param{x},
		Body: &Body{
			Bindings: []Binding{{
				Pat: []Ident{y},
				Exp: BinOp{Op: Plus, X: x.Ref(), Y: constant(1), T: Int},
			}},
			Result: Result{Values: []SubExp{y.Ref()}},
		},
	}
	if err := CheckFun(f); err != nil {
		t.Errorf("CheckFun() = %v, want nil", err)
	}
}

func TestCheckFunUnboundName(t *testing.T) {
	x := intIdent("x", 0)
	ghost := intIdent("ghost", 7)
	f := &FunDecl{
		Name:   "broken",
		Ret:    []ExtType{PrimRetType(Int)},
		Params: []Param{x},
		Body: &Body{
			Result: Result{Values: []SubExp{ghost.Ref()}},
		},
	}
	err := CheckFun(f)
	if err == nil {
		t.Fatal("CheckFun() = nil, want error on unbound name")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("CheckFun() = %v, want the unbound name in the message", err)
	}
}

func TestCheckFunSubBody(t *testing.T) {
	x := intIdent("x", 0)
	b := Ident{Name: VName{Base: "b", Tag: 1}, Typ: Bool}
	r := intIdent("r", 2)
	ghost := intIdent("ghost", 9)
	f := &FunDecl{
		Name:   "cond",
		Ret:    []ExtType{PrimRetType(Int)},
		Params: []Param{x},
		Body: &Body{
			Bindings: []Binding{
				{Pat: []Ident{b}, Exp: BinOp{Op: Less, X: constant(0), Y: x.Ref(), T: Bool}},
				{Pat: []Ident{r}, Exp: If{
					Cond: b.Ref(),
					Then: &Body{Result: Result{Values: []SubExp{ghost.Ref()}}},
					Else: &Body{Result: Result{Values: []SubExp{constant(0)}}},
					Ret:  []ExtType{PrimRetType(Int)},
				}},
			},
			Result: Result{Values: []SubExp{r.Ref()}},
		},
	}
	if err := CheckFun(f); err == nil {
		t.Error("CheckFun() = nil, want error on unbound name in branch")
	}
}
