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
	"fmt"

	"github.com/pkg/errors"
	"github.com/rivelang/rive/lang/ast"
)

type (
	// Exp is the right-hand side of a binding: a primitive operation, a
	// conditional, a call, a sequential loop or a loop operator. All of
	// its operands are sub-expressions.
	Exp interface {
		fmt.Stringer
		exp()
	}

	// BinOp applies a binary operator to two scalars.
	BinOp struct {
		Op   BinOpKind
		X, Y SubExp
		T    PrimType
	}

	// Not negates a boolean.
	Not struct {
		X SubExp
	}

	// Negate negates a number.
	Negate struct {
		X SubExp
		T PrimType
	}

	// Assert checks that X holds at runtime and produces a certificate.
	// Loc is the surface position reported when the check fails.
	Assert struct {
		X   SubExp
		Loc ast.Pos
	}

	// Index reads an element or sub-array, dropping len(Idx) outer
	// dimensions. Certs carries the bounds-check certificates, if any.
	Index struct {
		Certs Certificates
		Array Ident
		Idx   []SubExp
	}

	// Iota produces the array [0, 1, ..., N-1].
	Iota struct {
		N SubExp
	}

	// Replicate produces an array of N copies of V.
	Replicate struct {
		N SubExp
		V SubExp
	}

	// Reshape reinterprets Array under a new shape. Certs witnesses
	// that the total size is preserved.
	Reshape struct {
		Certs Certificates
		Shape []SubExp
		Array Ident
	}

	// Rearrange permutes the dimensions of Array.
	Rearrange struct {
		Perm  []int
		Array Ident
	}

	// Split cuts Array along its outer dimension into len(Sizes)
	// consecutive pieces. Certs witnesses that the sizes are
	// non-negative and sum to the outer dimension.
	Split struct {
		Certs Certificates
		Sizes []SubExp
		Array Ident
	}

	// Concat joins X and Y along their outer dimension. Size is the
	// combined outer dimension; Certs witnesses that the inner
	// dimensions agree.
	Concat struct {
		Certs Certificates
		X, Y  Ident
		Size  SubExp
	}

	// Copy produces a fresh copy of a value, severing aliasing.
	Copy struct {
		X SubExp
	}

	// ArrayLit produces an array from its elements. ElemType is the
	// element (row) type, needed when Elems is empty.
	ArrayLit struct {
		Elems    []SubExp
		ElemType Type
	}

	// If evaluates one of two bodies. Ret declares the result types;
	// dimensions the branches disagree on are existential.
	If struct {
		Cond       SubExp
		Then, Else *Body
		Ret        []ExtType
	}

	// Apply calls an internal function. Shape arguments come first and
	// are always observed. Ret is the instantiated return type of the
	// call; its remaining existential dimensions are resolved by the
	// binding pattern.
	Apply struct {
		Name string
		Args []Arg
		Ret  []ExtType
	}

	// DoLoop runs Body repeatedly. The merge parameters are bound to
	// their initial values on the first iteration and to the body's
	// results afterwards; the loop's results are the final merge
	// values.
	DoLoop struct {
		Merge []MergeVar
		Form  LoopForm
		Body  *Body
	}

	// Map applies Fun to the rows of the arrays in lock-step.
	Map struct {
		Certs  Certificates
		Fun    *Lambda
		Arrays []Ident
	}

	// Reduce folds the rows of the arrays with Fun starting from the
	// neutral elements.
	Reduce struct {
		Certs   Certificates
		Fun     *Lambda
		Neutral []SubExp
		Arrays  []Ident
	}

	// Scan produces all prefix reductions of the arrays.
	Scan struct {
		Certs   Certificates
		Fun     *Lambda
		Neutral []SubExp
		Arrays  []Ident
	}

	// Redomap fuses a map with a reduction: MapFun produces per-row
	// values that RedFun folds into the accumulator.
	Redomap struct {
		Certs   Certificates
		RedFun  *Lambda
		MapFun  *Lambda
		Neutral []SubExp
		Arrays  []Ident
	}

	// Stream processes the arrays in chunks. Fun's first two parameters
	// are the chunk size and the chunk offset; the remaining parameters
	// are the chunks themselves. The per-chunk results are concatenated,
	// so the result's outer dimension is existential.
	Stream struct {
		Certs  Certificates
		Fun    *Lambda
		Arrays []Ident
	}

	// ConcatMap applies Fun to every row and concatenates the result
	// arrays. The result's outer dimension is existential.
	ConcatMap struct {
		Certs  Certificates
		Fun    *Lambda
		Arrays []Ident
	}

	// Partition reorders the rows of the arrays into len(Flags)+1
	// classes. Flags holds one boolean array per class; a row belongs
	// to the first class whose flag is set, or to a final implicit
	// class when no flag is set. The results are one size per class
	// followed by, for every input array, the rows reordered so that
	// classes are consecutive.
	Partition struct {
		Certs  Certificates
		Flags  []Ident
		Arrays []Ident
	}
)

func (BinOp) exp()     {}
func (Not) exp()       {}
func (Negate) exp()    {}
func (Assert) exp()    {}
func (Index) exp()     {}
func (Iota) exp()      {}
func (Replicate) exp() {}
func (Reshape) exp()   {}
func (Rearrange) exp() {}
func (Split) exp()     {}
func (Concat) exp()    {}
func (Copy) exp()      {}
func (ArrayLit) exp()  {}
func (If) exp()        {}
func (Apply) exp()     {}
func (DoLoop) exp()    {}
func (Map) exp()       {}
func (Reduce) exp()    {}
func (Scan) exp()      {}
func (Redomap) exp()   {}
func (Stream) exp()    {}
func (ConcatMap) exp() {}
func (Partition) exp() {}

// MergeVar is one loop-carried variable: a parameter and its value for the
// first iteration. Shape merge variables precede the value merge variables
// whose types they describe.
type MergeVar struct {
	Param Param
	Init  SubExp
}

type (
	// LoopForm decides how a DoLoop terminates.
	LoopForm interface {
		loopForm()
	}

	// ForLoop runs the body Bound times with I bound to the iteration
	// number.
	ForLoop struct {
		I     Ident
		Bound SubExp
	}

	// WhileLoop runs the body as long as the merge parameter Cond is
	// true. The body recomputes the continuation flag and threads it
	// out through Cond's position in the result.
	WhileLoop struct {
		Cond Ident
	}
)

func (ForLoop) loopForm()   {}
func (WhileLoop) loopForm() {}

// ExpTypes returns the result types of an expression as existential
// types. Primitive operations have concrete (all-free) result types;
// conditionals, calls, streams and concat-maps may carry existential
// dimensions that the binding pattern must resolve.
func ExpTypes(e Exp) ([]ExtType, error) {
	switch et := e.(type) {
	case BinOp:
		return []ExtType{StaticExtType(et.T)}, nil
	case Not:
		return []ExtType{StaticExtType(Bool)}, nil
	case Negate:
		return []ExtType{StaticExtType(et.T)}, nil
	case Assert:
		return []ExtType{StaticExtType(Cert)}, nil
	case Index:
		t, err := RowType(et.Array.Typ, len(et.Idx))
		if err != nil {
			return nil, err
		}
		return []ExtType{StaticExtType(t)}, nil
	case Iota:
		return []ExtType{StaticExtType(ArrayOf(Int, Shape{et.N}))}, nil
	case Replicate:
		t := et.V.Type()
		dims := Shape{et.N}
		if arr, ok := t.(ArrayType); ok {
			dims = append(dims, arr.Dims...)
		}
		return []ExtType{StaticExtType(ArrayOf(t.ElemType(), dims))}, nil
	case Reshape:
		return []ExtType{StaticExtType(ArrayOf(et.Array.Typ.ElemType(), Shape(et.Shape)))}, nil
	case Rearrange:
		arr, ok := et.Array.Typ.(ArrayType)
		if !ok || len(et.Perm) != len(arr.Dims) {
			return nil, errors.Errorf("cannot permute type %s with permutation %v", et.Array.Typ.String(), et.Perm)
		}
		dims := make(Shape, len(arr.Dims))
		for i, p := range et.Perm {
			dims[i] = arr.Dims[p]
		}
		return []ExtType{StaticExtType(ArrayOf(arr.Elem, dims))}, nil
	case Split:
		arr, ok := et.Array.Typ.(ArrayType)
		if !ok {
			return nil, errors.Errorf("cannot split type %s", et.Array.Typ.String())
		}
		ts := make([]ExtType, len(et.Sizes))
		for i, size := range et.Sizes {
			dims := append(Shape{size}, arr.Dims[1:]...)
			ts[i] = StaticExtType(ArrayOf(arr.Elem, dims))
		}
		return ts, nil
	case Concat:
		arr, ok := et.X.Typ.(ArrayType)
		if !ok {
			return nil, errors.Errorf("cannot concatenate type %s", et.X.Typ.String())
		}
		dims := append(Shape{et.Size}, arr.Dims[1:]...)
		return []ExtType{StaticExtType(ArrayOf(arr.Elem, dims))}, nil
	case Copy:
		return []ExtType{StaticExtType(et.X.Type())}, nil
	case ArrayLit:
		n := Constant{Value: IntValue(int64(len(et.Elems)))}
		dims := Shape{n}
		if arr, ok := et.ElemType.(ArrayType); ok {
			dims = append(dims, arr.Dims...)
		}
		return []ExtType{StaticExtType(ArrayOf(et.ElemType.ElemType(), dims))}, nil
	case If:
		return et.Ret, nil
	case Apply:
		return et.Ret, nil
	case DoLoop:
		// Dimensions naming a merge parameter are only meaningful inside
		// the loop; they leave as existentials.
		local := map[VName]bool{}
		for _, m := range et.Merge {
			local[m.Param.Name] = true
		}
		conv := newExtConv(local)
		ts := make([]ExtType, len(et.Merge))
		for i, m := range et.Merge {
			ts[i] = conv.extType(m.Param.Typ)
		}
		return ts, nil
	case Map:
		outer, err := soacOuterDim(et.Arrays)
		if err != nil {
			return nil, err
		}
		conv := newExtConv(lambdaLocals(et.Fun))
		ts := make([]ExtType, len(et.Fun.Ret))
		for i, rt := range et.Fun.Ret {
			shape := ExtShape{Free{D: outer}}
			if arr, ok := rt.(ArrayType); ok {
				for _, d := range arr.Dims {
					shape = append(shape, conv.dim(d))
				}
			}
			ts[i] = ExtType{Elem: rt.ElemType(), Shape: shape}
		}
		return ts, nil
	case Reduce:
		return localExtTypes(et.Fun.Ret, lambdaLocals(et.Fun)), nil
	case Scan:
		ts := make([]ExtType, len(et.Arrays))
		for i, arr := range et.Arrays {
			ts[i] = StaticExtType(arr.Typ)
		}
		return ts, nil
	case Redomap:
		return localExtTypes(et.RedFun.Ret, lambdaLocals(et.RedFun, et.MapFun)), nil
	case Stream:
		return extOuterTypes(et.Fun.Ret, lambdaLocals(et.Fun)), nil
	case ConcatMap:
		return extOuterTypes(et.Fun.Ret, lambdaLocals(et.Fun)), nil
	case Partition:
		ts := make([]ExtType, 0, len(et.Flags)+1+len(et.Arrays))
		for i := 0; i <= len(et.Flags); i++ {
			ts = append(ts, StaticExtType(Int))
		}
		for _, arr := range et.Arrays {
			ts = append(ts, StaticExtType(arr.Typ))
		}
		return ts, nil
	}
	return nil, errors.Errorf("expression %T has no result types", e)
}

// soacOuterDim returns the outer dimension shared by the arrays of a loop
// operator.
func soacOuterDim(arrays []Ident) (SubExp, error) {
	if len(arrays) == 0 {
		return nil, errors.New("loop operator applied to no arrays")
	}
	return OuterDim(arrays[0].Typ)
}

// extConv converts dimensions for use outside the scope that produced
// them: a dimension naming a local binding becomes an existential index,
// assigned in first-use order; every other dimension stays free.
type extConv struct {
	local map[VName]bool
	idx   map[VName]int
	next  int
}

func newExtConv(local map[VName]bool) *extConv {
	return &extConv{local: local, idx: map[VName]int{}}
}

func (c *extConv) dim(d SubExp) ExtDim {
	v, ok := d.(Var)
	if !ok || !c.local[v.I.Name] {
		return Free{D: d}
	}
	k, seen := c.idx[v.I.Name]
	if !seen {
		k = c.next
		c.next++
		c.idx[v.I.Name] = k
	}
	return Ext{K: k}
}

func (c *extConv) freshExt() Ext {
	k := c.next
	c.next++
	return Ext{K: k}
}

func (c *extConv) extType(t Type) ExtType {
	et := ExtType{Elem: t.ElemType()}
	if arr, ok := t.(ArrayType); ok {
		for _, d := range arr.Dims {
			et.Shape = append(et.Shape, c.dim(d))
		}
	}
	return et
}

// lambdaLocals returns the names bound inside the given lambdas: their
// parameters and the patterns of their bodies' bindings.
func lambdaLocals(ls ...*Lambda) map[VName]bool {
	local := map[VName]bool{}
	for _, l := range ls {
		for _, p := range l.Params {
			local[p.Name] = true
		}
		for _, bnd := range l.Body.Bindings {
			for _, id := range bnd.Pat {
				local[id.Name] = true
			}
		}
	}
	return local
}

// localExtTypes lifts result types out of the scope that produced them:
// dimensions naming one of the local bindings are not meaningful outside
// and become existential.
func localExtTypes(rts []Type, local map[VName]bool) []ExtType {
	conv := newExtConv(local)
	ts := make([]ExtType, len(rts))
	for i, rt := range rts {
		ts[i] = conv.extType(rt)
	}
	return ts
}

// extOuterTypes existentially quantifies the outer dimension of each
// result type: per-chunk and per-element result arrays concatenate into
// results of statically unknown extent. Inner dimensions naming a
// lambda-local binding become existential too.
func extOuterTypes(rts []Type, local map[VName]bool) []ExtType {
	conv := newExtConv(local)
	ts := make([]ExtType, len(rts))
	for i, rt := range rts {
		shape := ExtShape{conv.freshExt()}
		if arr, ok := rt.(ArrayType); ok {
			for _, d := range arr.Dims[1:] {
				shape = append(shape, conv.dim(d))
			}
		}
		ts[i] = ExtType{Elem: rt.ElemType(), Shape: shape}
	}
	return ts
}
