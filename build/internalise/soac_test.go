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

func intParam(name string) *ast.Param {
	return &ast.Param{Name: name, T: ast.Int()}
}

func posPred() *ast.Lambda {
	return &ast.Lambda{
		Params: []*ast.Param{intParam("x")},
		Body:   &ast.BinOp{Op: ast.Less, X: intLit(0), Y: intVar("x"), T: ast.Bool()},
		Ret:    ast.Bool(),
	}
}

func soacFun(name string, ret ast.Type, body ast.Exp) *ast.Program {
	aType := intVec(ast.NamedDim{Name: "n"})
	return &ast.Program{Funs: []*ast.FunDecl{{
		Name:   name,
		Ret:    ret,
		Params: []*ast.Param{{Name: "a", T: aType}},
		Body:   body,
	}}}
}

func arrArg() ast.Exp {
	return &ast.Var{Name: "a", T: ast.ArrayOf(ast.Int(), 1)}
}

func TestMapLowering(t *testing.T) {
	double := &ast.Lambda{
		Params: []*ast.Param{intParam("x")},
		Body:   &ast.BinOp{Op: ast.Times, X: intVar("x"), Y: intLit(2), T: ast.Int()},
		Ret:    ast.Int(),
	}
	prog := soacFun("double", ast.ArrayOf(ast.Int(), 1), &ast.Map{Fun: double, Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	var m ir.Map
	found := false
	for _, bnd := range f.Body.Bindings {
		if et, ok := bnd.Exp.(ir.Map); ok {
			m, found = et, true
		}
	}
	require.True(t, found)
	require.Len(t, m.Arrays, 1)
	require.Len(t, m.Fun.Params, 1)
	require.Equal(t, ir.Int, m.Fun.Params[0].Typ)
	require.Equal(t, []ir.Type{ir.Int}, m.Fun.Ret)
}

func TestReduceLowering(t *testing.T) {
	add := &ast.Lambda{
		Params: []*ast.Param{intParam("acc"), intParam("x")},
		Body:   &ast.BinOp{Op: ast.Plus, X: intVar("acc"), Y: intVar("x"), T: ast.Int()},
		Ret:    ast.Int(),
	}
	prog := soacFun("total", ast.Int(), &ast.Reduce{Fun: add, Neutral: intLit(0), Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	var r ir.Reduce
	found := false
	for _, bnd := range f.Body.Bindings {
		if et, ok := bnd.Exp.(ir.Reduce); ok {
			r, found = et, true
		}
	}
	require.True(t, found)
	require.Len(t, r.Fun.Params, 2, "accumulator and element")
	require.Len(t, r.Neutral, 1)
	require.True(t, ir.SubExpEqual(r.Neutral[0], ir.Constant{Value: ir.IntValue(0)}))
}

// A filter is a one-predicate partition: flag every element, reorder,
// split by the class sizes and keep the matching class.
func TestFilterLowering(t *testing.T) {
	prog := soacFun("pos", ast.ArrayOf(ast.Int(), 1), &ast.Filter{Fun: posPred(), Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	var part ir.Partition
	var splits []ir.Split
	var flagMaps []ir.Map
	foundPart := false
	for _, bnd := range f.Body.Bindings {
		switch et := bnd.Exp.(type) {
		case ir.Partition:
			part, foundPart = et, true
		case ir.Split:
			splits = append(splits, et)
		case ir.Map:
			flagMaps = append(flagMaps, et)
		}
	}
	require.True(t, foundPart)
	require.Len(t, part.Flags, 1)
	require.Len(t, part.Arrays, 1)
	require.Len(t, flagMaps, 1)
	require.Equal(t, []ir.Type{ir.Bool}, flagMaps[0].Fun.Ret)
	require.Len(t, splits, 1)
	require.Len(t, splits[0].Sizes, 2, "matching class and implicit rest")
	require.Len(t, f.Body.Result.Values, 1)
}

// Partitioning with two predicates yields three classes per input array.
func TestPartitionClassCount(t *testing.T) {
	neg := &ast.Lambda{
		Params: []*ast.Param{intParam("x")},
		Body:   &ast.BinOp{Op: ast.Less, X: intVar("x"), Y: intLit(0), T: ast.Bool()},
		Ret:    ast.Bool(),
	}
	ret := ast.Tuple(
		ast.ArrayOf(ast.Int(), 1),
		ast.ArrayOf(ast.Int(), 1),
		ast.ArrayOf(ast.Int(), 1),
	)
	prog := soacFun("classify", ret, &ast.Partition{Funs: []*ast.Lambda{posPred(), neg}, Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	var part ir.Partition
	var splits []ir.Split
	found := false
	for _, bnd := range f.Body.Bindings {
		switch et := bnd.Exp.(type) {
		case ir.Partition:
			part, found = et, true
		case ir.Split:
			splits = append(splits, et)
		}
	}
	require.True(t, found)
	require.Len(t, part.Flags, 2, "one flag array per explicit predicate")
	require.Len(t, splits, 1)
	require.Len(t, splits[0].Sizes, 3)
	require.Len(t, f.Body.Result.Values, 3)
}

func TestRedomapLowering(t *testing.T) {
	add := &ast.Lambda{
		Params: []*ast.Param{intParam("acc"), intParam("y")},
		Body:   &ast.BinOp{Op: ast.Plus, X: intVar("acc"), Y: intVar("y"), T: ast.Int()},
		Ret:    ast.Int(),
	}
	double := &ast.Lambda{
		Params: []*ast.Param{intParam("x")},
		Body:   &ast.BinOp{Op: ast.Times, X: intVar("x"), Y: intLit(2), T: ast.Int()},
		Ret:    ast.Int(),
	}
	prog := soacFun("sumDoubled", ast.Int(), &ast.Redomap{
		RedFun:  add,
		MapFun:  double,
		Neutral: intLit(0),
		Arr:     arrArg(),
	})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	var rm ir.Redomap
	found := false
	for _, bnd := range f.Body.Bindings {
		if et, ok := bnd.Exp.(ir.Redomap); ok {
			rm, found = et, true
		}
	}
	require.True(t, found)
	require.Len(t, rm.MapFun.Params, 1)
	require.Len(t, rm.RedFun.Params, 2)
	require.Equal(t, []ir.Type{ir.Int}, rm.MapFun.Ret)
}

// A concat-map's result extent depends on every lambda application: the
// binding pattern resolves it as a fresh existential size.
func TestConcatMapExistentialSize(t *testing.T) {
	dup := &ast.Lambda{
		Params: []*ast.Param{intParam("x")},
		Body: &ast.ArrayLit{
			Elems:    []ast.Exp{intVar("x"), intVar("x")},
			ElemType: ast.Int(),
		},
		Ret: ast.ArrayOf(ast.Int(), 1),
	}
	prog := soacFun("dup", ast.ArrayOf(ast.Int(), 1), &ast.ConcatMap{Fun: dup, Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	for _, bnd := range f.Body.Bindings {
		if _, ok := bnd.Exp.(ir.ConcatMap); ok {
			require.Len(t, bnd.Pat, 2, "size identifier then the result array")
			require.Equal(t, ir.Int, bnd.Pat[0].Typ)
			arrT, ok := bnd.Pat[1].Typ.(ir.ArrayType)
			require.True(t, ok)
			require.True(t, ir.SubExpEqual(arrT.Dims[0], bnd.Pat[0].Ref()),
				"the result's outer dimension is the bound size")
			return
		}
	}
	t.Fatal("no concat-map binding found")
}

func TestScanKeepsLength(t *testing.T) {
	add := &ast.Lambda{
		Params: []*ast.Param{intParam("acc"), intParam("x")},
		Body:   &ast.BinOp{Op: ast.Plus, X: intVar("acc"), Y: intVar("x"), T: ast.Int()},
		Ret:    ast.Int(),
	}
	prog := soacFun("prefixes", ast.ArrayOf(ast.Int(), 1), &ast.Scan{Fun: add, Neutral: intLit(0), Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	for _, bnd := range f.Body.Bindings {
		if _, ok := bnd.Exp.(ir.Scan); ok {
			require.Len(t, bnd.Pat, 1)
			arrT, ok := bnd.Pat[0].Typ.(ir.ArrayType)
			require.True(t, ok)
			require.True(t, ir.SubExpEqual(arrT.Dims[0], f.ShapeParams[0].Ref()),
				"a scan preserves the input's outer extent")
			return
		}
	}
	t.Fatal("no scan binding found")
}

func TestStreamChunkParameters(t *testing.T) {
	id := &ast.Lambda{
		Params: []*ast.Param{
			intParam("c"),
			intParam("off"),
			{Name: "xs", T: ast.ArrayOf(ast.Int(), 1)},
		},
		Body: &ast.Var{Name: "xs", T: ast.ArrayOf(ast.Int(), 1)},
		Ret:  ast.ArrayOf(ast.Int(), 1),
	}
	prog := soacFun("chunks", ast.ArrayOf(ast.Int(), 1), &ast.Stream{Fun: id, Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	for _, bnd := range f.Body.Bindings {
		st, ok := bnd.Exp.(ir.Stream)
		if !ok {
			continue
		}
		require.Len(t, st.Fun.Params, 3, "chunk size, offset, then the chunk")
		require.Equal(t, ir.Int, st.Fun.Params[0].Typ)
		require.Equal(t, ir.Int, st.Fun.Params[1].Typ)
		chunkT, isArr := st.Fun.Params[2].Typ.(ir.ArrayType)
		require.True(t, isArr)
		require.True(t, ir.SubExpEqual(chunkT.Dims[0], st.Fun.Params[0].Ref()),
			"the chunk's outer extent is the chunk-size parameter")
		// The overall extent is existential: a size identifier precedes
		// the result in the pattern.
		require.Len(t, bnd.Pat, 2)
		require.Equal(t, ir.Int, bnd.Pat[0].Typ)
		return
	}
	t.Fatal("no stream binding found")
}

// A map lambda producing per-element shapes: those shapes are named
// after the lambda's own bindings, which are meaningless outside the
// map, so the binding's type must carry a fresh size identifier instead.
func TestMapResultShapeRebound(t *testing.T) {
	ramps := &ast.Lambda{
		Params: []*ast.Param{intParam("x")},
		Body:   &ast.Iota{N: intVar("x")},
		Ret:    ast.ArrayOf(ast.Int(), 1),
	}
	prog := soacFun("ramps", ast.ArrayOf(ast.Int(), 2), &ast.Map{Fun: ramps, Arr: arrArg()})
	out := lowerProgram(t, prog)
	f := out.Funs[0]

	for _, bnd := range f.Body.Bindings {
		m, ok := bnd.Exp.(ir.Map)
		if !ok {
			continue
		}
		require.Len(t, bnd.Pat, 2, "size identifier then the result array")
		require.Equal(t, ir.Int, bnd.Pat[0].Typ)
		arrT, ok := bnd.Pat[1].Typ.(ir.ArrayType)
		require.True(t, ok)
		require.Equal(t, 2, arrT.Rank())
		require.True(t, ir.SubExpEqual(arrT.Dims[1], bnd.Pat[0].Ref()),
			"the inner dimension is the bound size")
		require.False(t, ir.SubExpEqual(arrT.Dims[1], m.Fun.Params[0].Ref()),
			"the lambda parameter must not leak into the binding type")
		return
	}
	t.Fatal("no map binding found")
}
