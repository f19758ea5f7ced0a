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

	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
	"github.com/stretchr/testify/require"
)

// drainProgram is  fun int drain(int x) = loop (v = x) while 0 < v do
// v - 1 in v.
func drainProgram() *ast.Program {
	return &ast.Program{Funs: []*ast.FunDecl{{
		Name:   "drain",
		Ret:    ast.Int(),
		Params: []*ast.Param{{Name: "x", T: ast.Int()}},
		Body: &ast.DoLoop{
			Pat:  &ast.PatIdent{Name: "v", T: ast.Int()},
			Init: intVar("x"),
			Form: &ast.WhileLoop{
				Cond: &ast.BinOp{Op: ast.Less, X: intLit(0), Y: intVar("v"), T: ast.Bool()},
			},
			LoopBody: &ast.BinOp{Op: ast.Minus, X: intVar("v"), Y: intLit(1), T: ast.Int()},
			Body:     intVar("v"),
		},
	}}}
}

func TestWhileLoopCarriesContinuationFlag(t *testing.T) {
	out := lowerProgram(t, drainProgram())
	f := out.Funs[0]

	var loop ir.DoLoop
	found := false
	for _, bnd := range f.Body.Bindings {
		if et, ok := bnd.Exp.(ir.DoLoop); ok {
			loop, found = et, true
		}
	}
	require.True(t, found)

	// The continuation flag is the first merge variable; the original
	// scalar follows it.
	require.Len(t, loop.Merge, 2)
	require.Equal(t, ir.Bool, loop.Merge[0].Param.Typ)
	require.Equal(t, ir.Int, loop.Merge[1].Param.Typ)
	form, ok := loop.Form.(ir.WhileLoop)
	require.True(t, ok)
	require.Equal(t, loop.Merge[0].Param, form.Cond)

	// The loop body threads the recomputed flag first, then the value.
	require.Len(t, loop.Body.Result.Values, 2)
}

// The condition is lowered once and specialised twice: its comparison
// appears in the enclosing body, deciding the first iteration, and again
// inside the loop body over the fresh results. The two copies must not
// share binding names.
func TestWhileConditionDuplicated(t *testing.T) {
	out := lowerProgram(t, drainProgram())
	f := out.Funs[0]

	lessPats := func(b *ir.Body) []ir.VName {
		var pats []ir.VName
		for _, bnd := range b.Bindings {
			if op, ok := bnd.Exp.(ir.BinOp); ok && op.Op == ir.Less {
				pats = append(pats, bnd.Pat[0].Name)
			}
		}
		return pats
	}

	outer := lessPats(f.Body)
	require.Len(t, outer, 1, "the first decision is computed before the loop")

	var loop ir.DoLoop
	for _, bnd := range f.Body.Bindings {
		if et, ok := bnd.Exp.(ir.DoLoop); ok {
			loop = et
		}
	}
	inner := lessPats(loop.Body)
	require.Len(t, inner, 1, "the next decision is recomputed inside the loop")
	require.NotEqual(t, outer[0], inner[0], "the two specialisations must bind fresh names")
}

// A loop over an array whose shape may change carries the dimensions as
// additional merge variables and leaves the loop with existential sizes.
func TestLoopOverArrayCarriesShape(t *testing.T) {
	aType := intVec(ast.NamedDim{Name: "n"})
	prog := &ast.Program{Funs: []*ast.FunDecl{{
		Name:   "regrow",
		Ret:    ast.ArrayOf(ast.Int(), 1),
		Params: []*ast.Param{{Name: "a", T: aType}},
		Body: &ast.DoLoop{
			Pat:  &ast.PatIdent{Name: "v", T: ast.ArrayOf(ast.Int(), 1)},
			Init: &ast.Var{Name: "a", T: aType},
			Form: &ast.ForLoop{IVar: "i", Bound: intLit(3)},
			LoopBody: &ast.Concat{
				X: &ast.Var{Name: "v", T: ast.ArrayOf(ast.Int(), 1)},
				Y: &ast.Var{Name: "v", T: ast.ArrayOf(ast.Int(), 1)},
			},
			Body: &ast.Var{Name: "v", T: ast.ArrayOf(ast.Int(), 1)},
		},
	}}}
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	var loop ir.DoLoop
	var loopPat []ir.Ident
	for _, bnd := range f.Body.Bindings {
		if et, ok := bnd.Exp.(ir.DoLoop); ok {
			loop = et
			loopPat = bnd.Pat
		}
	}
	// One merge variable for the outer dimension, one for the array.
	require.Len(t, loop.Merge, 2)
	require.Equal(t, ir.Int, loop.Merge[0].Param.Typ)
	arrT, ok := loop.Merge[1].Param.Typ.(ir.ArrayType)
	require.True(t, ok)
	require.True(t, ir.SubExpEqual(arrT.Dims[0], loop.Merge[0].Param.Ref()),
		"the array merge variable is typed by the shape merge variable")
	// The loop's array result leaves with an existential size bound in
	// the pattern: a fresh size identifier precedes the two results.
	require.Len(t, loopPat, 3)
	require.Equal(t, ir.Int, loopPat[0].Typ)
}
