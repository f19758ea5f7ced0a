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

func countAsserts(b *ir.Body) int {
	n := 0
	for _, bnd := range allBindings(b) {
		if _, ok := bnd.Exp.(ir.Assert); ok {
			n++
		}
	}
	return n
}

// headProgram is  fun int head([n]int a) = a[0].
func headProgram() *ast.Program {
	aType := intVec(ast.NamedDim{Name: "n"})
	return &ast.Program{Funs: []*ast.FunDecl{{
		Name:   "head",
		Ret:    ast.Int(),
		Params: []*ast.Param{{Name: "a", T: aType}},
		Body:   &ast.Index{Array: "a", Idx: []ast.Exp{intLit(0)}, T: ast.Int()},
	}}}
}

func TestIndexBoundsEnabled(t *testing.T) {
	out := lowerProgram(t, headProgram())
	f := out.Funs[0]
	require.Equal(t, 1, countAsserts(f.Body), "one certificate per indexed dimension")
	for _, bnd := range f.Body.Bindings {
		if idx, ok := bnd.Exp.(ir.Index); ok {
			require.Len(t, idx.Certs, 1)
			require.Equal(t, ir.Cert, idx.Certs[0].Typ)
		}
	}
}

func TestIndexBoundsDisabled(t *testing.T) {
	out := lowerProgram(t, headProgram(), BoundsChecks(false))
	f := out.Funs[0]
	require.Zero(t, countAsserts(f.Body))
	for _, bnd := range f.Body.Bindings {
		if idx, ok := bnd.Exp.(ir.Index); ok {
			require.Empty(t, idx.Certs)
		}
	}
}

func TestIndexRankTwoBounds(t *testing.T) {
	mType := ast.ArrayType{Elem: ast.Int(), Dims: []ast.Dim{
		ast.NamedDim{Name: "n"},
		ast.NamedDim{Name: "m"},
	}}
	prog := &ast.Program{Funs: []*ast.FunDecl{{
		Name:   "corner",
		Ret:    ast.Int(),
		Params: []*ast.Param{{Name: "a", T: mType}},
		Body:   &ast.Index{Array: "a", Idx: []ast.Exp{intLit(0), intLit(1)}, T: ast.Int()},
	}}}
	out := lowerProgram(t, prog)
	f := out.Funs[0]
	require.Len(t, f.ShapeParams, 2)
	require.Equal(t, 2, countAsserts(f.Body))
	for _, bnd := range f.Body.Bindings {
		if idx, ok := bnd.Exp.(ir.Index); ok {
			require.Len(t, idx.Certs, 2)
		}
	}
}

// Reshape must preserve the element count even when bounds checking is
// off: the check is structural, not an indexing guard.
func TestReshapeCertUnconditional(t *testing.T) {
	aType := intVec(ast.NamedDim{Name: "n"})
	prog := &ast.Program{Funs: []*ast.FunDecl{{
		Name:   "rs",
		Ret:    ast.ArrayOf(ast.Int(), 1),
		Params: []*ast.Param{{Name: "a", T: aType}},
		Body: &ast.Reshape{
			Shape: []ast.Exp{&ast.Size{Dim: 0, Array: &ast.Var{Name: "a", T: aType}}},
			Array: &ast.Var{Name: "a", T: aType},
		},
	}}}
	out := lowerProgram(t, prog, BoundsChecks(false))
	f := out.Funs[0]
	require.Equal(t, 1, countAsserts(f.Body))
	for _, bnd := range f.Body.Bindings {
		if rs, ok := bnd.Exp.(ir.Reshape); ok {
			require.Len(t, rs.Certs, 1)
		}
	}
}

// Zipping arrays whose outer extents are distinct names asserts their
// agreement and attaches the certificate to the body result.
func TestZipShapeCert(t *testing.T) {
	aType := intVec(ast.NamedDim{Name: "n"})
	bType := intVec(ast.NamedDim{Name: "m"})
	prog := &ast.Program{Funs: []*ast.FunDecl{{
		Name: "pair",
		Ret:  ast.ArrayOf(ast.Tuple(ast.Int(), ast.Int()), 1),
		Params: []*ast.Param{
			{Name: "a", T: aType},
			{Name: "b", T: bType},
		},
		Body: &ast.Zip{Arrays: []ast.Exp{
			&ast.Var{Name: "a", T: aType},
			&ast.Var{Name: "b", T: bType},
		}},
	}}}
	out := lowerProgram(t, prog, BoundsChecks(false))
	f := out.Funs[0]
	require.Equal(t, 1, countAsserts(f.Body))
	require.Len(t, f.Body.Result.Certs, 1, "the shape certificate guards the zipped result")
}
