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
	"github.com/rivelang/rive/build/fmterr"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
)

// internaliseExp lowers a surface expression to the ordered sub-expression
// values it denotes, one per flattened tuple leaf. Compound results are
// bound in the scope's body first, so every returned value is a constant
// or a reference.
func internaliseExp(s *scope, e ast.Exp) ([]ir.SubExp, error) {
	switch et := e.(type) {
	case *ast.Literal:
		return internaliseLiteral(s, et)
	case *ast.Var:
		ids, err := s.lookup(et, et.Name)
		if err != nil {
			return nil, err
		}
		return identRefs(ids), nil
	case *ast.TupLit:
		var values []ir.SubExp
		for _, el := range et.Elems {
			sub, err := internaliseExp(s, el)
			if err != nil {
				return nil, err
			}
			values = append(values, sub...)
		}
		return values, nil
	case *ast.ArrayLit:
		return internaliseArrayLit(s, et)
	case *ast.UnOp:
		return internaliseUnOp(s, et)
	case *ast.BinOp:
		return internaliseBinOp(s, et)
	case *ast.If:
		return internaliseIf(s, et)
	case *ast.Apply:
		return internaliseCall(s, et)
	case *ast.LetPat:
		values, err := internaliseExp(s, et.E)
		if err != nil {
			return nil, err
		}
		inner, err := bindPattern(s, et.Pat, values)
		if err != nil {
			return nil, err
		}
		return internaliseExp(inner, et.Body)
	case *ast.Index:
		return internaliseIndex(s, et)
	case *ast.Iota:
		n, err := internaliseExp1(s, et.N)
		if err != nil {
			return nil, err
		}
		return s.bindSubExps("iota", ir.Iota{N: n})
	case *ast.Size:
		return internaliseSize(s, et)
	case *ast.Replicate:
		return internaliseReplicate(s, et)
	case *ast.Reshape:
		return internaliseReshape(s, et)
	case *ast.Rearrange:
		return internaliseRearrange(s, et)
	case *ast.Split:
		return internaliseSplit(s, et)
	case *ast.Concat:
		return internaliseConcat(s, et)
	case *ast.Zip:
		return internaliseZip(s, et)
	case *ast.Unzip:
		// Flattening already decomposed the array of tuples; unzip is
		// representational only.
		return internaliseExp(s, et.Array)
	case *ast.Copy:
		values, err := internaliseExp(s, et.X)
		if err != nil {
			return nil, err
		}
		out := make([]ir.SubExp, len(values))
		for i, v := range values {
			c, err := s.bindSubExp("copy", ir.Copy{X: v})
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case *ast.Map:
		return internaliseMap(s, et)
	case *ast.Reduce:
		return internaliseReduce(s, et)
	case *ast.Scan:
		return internaliseScan(s, et)
	case *ast.Filter:
		return internaliseFilter(s, et)
	case *ast.Partition:
		return internalisePartition(s, et)
	case *ast.Redomap:
		return internaliseRedomap(s, et)
	case *ast.Stream:
		return internaliseStream(s, et)
	case *ast.ConcatMap:
		return internaliseConcatMap(s, et)
	case *ast.DoLoop:
		return internaliseDoLoop(s, et)
	}
	return nil, fmterr.Internalf(e, "expression of type %T not supported", e)
}

// internaliseExp1 lowers an expression that must denote exactly one value.
func internaliseExp1(s *scope, e ast.Exp) (ir.SubExp, error) {
	values, err := internaliseExp(s, e)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, errUnsupportedForm(e, len(values))
	}
	return values[0], nil
}

// subExpIdent returns an identifier holding the value, binding a copy when
// the value is a constant.
func (s *scope) subExpIdent(base string, se ir.SubExp) (ir.Ident, error) {
	if v, ok := se.(ir.Var); ok {
		return v.I, nil
	}
	ids, err := s.bind(base, ir.Copy{X: se})
	if err != nil {
		return ir.Ident{}, err
	}
	return ids[0], nil
}

// internaliseExpToIdents lowers an expression and names every resulting
// value.
func internaliseExpToIdents(s *scope, base string, e ast.Exp) ([]ir.Ident, error) {
	values, err := internaliseExp(s, e)
	if err != nil {
		return nil, err
	}
	ids := make([]ir.Ident, len(values))
	for i, v := range values {
		if ids[i], err = s.subExpIdent(base, v); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func identRefs(ids []ir.Ident) []ir.SubExp {
	refs := make([]ir.SubExp, len(ids))
	for i, id := range ids {
		refs[i] = id.Ref()
	}
	return refs
}

func internaliseLiteral(s *scope, e *ast.Literal) ([]ir.SubExp, error) {
	vals, err := internaliseValue(e.Value)
	if err != nil {
		return nil, errInvalidValue(e, e.Value)
	}
	out := make([]ir.SubExp, len(vals))
	for i, v := range vals {
		if out[i], err = literalSubExp(s, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// literalSubExp lowers one flattened constant. Scalars stay constants;
// array constants are materialised dimension by dimension.
func literalSubExp(s *scope, v ir.Value) (ir.SubExp, error) {
	arr, ok := v.(ir.ArrayValue)
	if !ok {
		return ir.Constant{Value: v.(ir.PrimValue)}, nil
	}
	if len(arr.Dims) == 1 {
		elems := make([]ir.SubExp, len(arr.Elems))
		for i, el := range arr.Elems {
			elems[i] = ir.Constant{Value: el}
		}
		return s.bindSubExp("array", ir.ArrayLit{Elems: elems, ElemType: arr.Elem})
	}
	rows := make([]ir.SubExp, arr.Dims[0])
	for j := range rows {
		row, err := arrayRow(arr, int64(j))
		if err != nil {
			return nil, fmterr.Internal(err)
		}
		if rows[j], err = literalSubExp(s, row); err != nil {
			return nil, err
		}
	}
	rowDims := make(ir.Shape, 0, len(arr.Dims)-1)
	for _, d := range arr.Dims[1:] {
		rowDims = append(rowDims, ir.Constant{Value: ir.IntValue(d)})
	}
	rowType := ir.ArrayOf(arr.Elem, rowDims)
	return s.bindSubExp("array", ir.ArrayLit{Elems: rows, ElemType: rowType})
}

func internaliseArrayLit(s *scope, e *ast.ArrayLit) ([]ir.SubExp, error) {
	if len(e.Elems) == 0 {
		ets, err := internaliseType(e.ElemType)
		if err != nil {
			return nil, fmterr.Position(e, err)
		}
		types, err := concreteTypes(ets)
		if err != nil {
			return nil, fmterr.Errorf(e, "empty array literal needs a fully concrete element type %s", e.ElemType.String())
		}
		out := make([]ir.SubExp, len(types))
		for i, t := range types {
			if out[i], err = s.bindSubExp("array", ir.ArrayLit{ElemType: t}); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	comps, err := transposeElems(s, e.Elems)
	if err != nil {
		return nil, err
	}
	out := make([]ir.SubExp, len(comps))
	for c, elems := range comps {
		if err := litShapeCerts(s, e, elems); err != nil {
			return nil, err
		}
		elemType := elems[0].Type()
		if out[c], err = s.bindSubExp("array", ir.ArrayLit{Elems: elems, ElemType: elemType}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// transposeElems lowers a list of element expressions and regroups the
// values per flattened component.
func transposeElems(s *scope, elems []ast.Exp) ([][]ir.SubExp, error) {
	var comps [][]ir.SubExp
	for i, el := range elems {
		values, err := internaliseExp(s, el)
		if err != nil {
			return nil, err
		}
		if comps == nil {
			comps = make([][]ir.SubExp, len(values))
		}
		if len(values) != len(comps) {
			return nil, fmterr.Internalf(el, "element %d flattens into %d value(s) where %d were expected", i, len(values), len(comps))
		}
		for c, v := range values {
			comps[c] = append(comps[c], v)
		}
	}
	return comps, nil
}

// litShapeCerts asserts that the rows of an array literal agree in their
// outer extent. Required unconditionally: rows are parallel components of
// the flat representation.
func litShapeCerts(s *scope, src ast.Node, elems []ir.SubExp) error {
	var first ir.SubExp
	for _, el := range elems {
		arr, ok := el.Type().(ir.ArrayType)
		if !ok {
			return nil
		}
		if first == nil {
			first = arr.Dims[0]
			continue
		}
		if ir.SubExpEqual(first, arr.Dims[0]) {
			continue
		}
		cert, err := s.equalCert(src, first, arr.Dims[0])
		if err != nil {
			return err
		}
		s.addResultCerts(ir.Certificates{cert})
	}
	return nil
}

func internaliseUnOp(s *scope, e *ast.UnOp) ([]ir.SubExp, error) {
	x, err := internaliseExp1(s, e.X)
	if err != nil {
		return nil, err
	}
	var op ir.Exp
	if e.Op == ast.Not {
		op = ir.Not{X: x}
	} else {
		op = ir.Negate{X: x, T: x.Type().ElemType()}
	}
	v, err := s.bindSubExp("unop", op)
	if err != nil {
		return nil, err
	}
	return []ir.SubExp{v}, nil
}

// internaliseBinOp lowers a binary operation. Both operands are lowered —
// and therefore bound, in evaluation order — before any operator
// normalisation: rewriting a greater-than onto less-than by swapping
// operands must not reorder their effects.
func internaliseBinOp(s *scope, e *ast.BinOp) ([]ir.SubExp, error) {
	x, err := internaliseExp1(s, e.X)
	if err != nil {
		return nil, err
	}
	y, err := internaliseExp1(s, e.Y)
	if err != nil {
		return nil, err
	}
	op, swapped, comparison, err := internaliseBinOpKind(e)
	if err != nil {
		return nil, err
	}
	if swapped {
		x, y = y, x
	}
	t := ir.Bool
	if !comparison {
		t = x.Type().ElemType()
	}
	v, err := s.bindSubExp("binop", ir.BinOp{Op: op, X: x, Y: y, T: t})
	if err != nil {
		return nil, err
	}
	return []ir.SubExp{v}, nil
}

func internaliseBinOpKind(e *ast.BinOp) (op ir.BinOpKind, swapped, comparison bool, err error) {
	switch e.Op {
	case ast.Plus:
		return ir.Plus, false, false, nil
	case ast.Minus:
		return ir.Minus, false, false, nil
	case ast.Times:
		return ir.Times, false, false, nil
	case ast.Divide:
		return ir.Divide, false, false, nil
	case ast.Mod:
		return ir.Mod, false, false, nil
	case ast.Pow:
		return ir.Pow, false, false, nil
	case ast.Equal:
		return ir.Equal, false, true, nil
	case ast.Less:
		return ir.Less, false, true, nil
	case ast.Leq:
		return ir.Leq, false, true, nil
	case ast.Greater:
		return ir.Less, true, true, nil
	case ast.Geq:
		return ir.Leq, true, true, nil
	case ast.LogAnd:
		return ir.LogAnd, false, false, nil
	case ast.LogOr:
		return ir.LogOr, false, false, nil
	}
	return 0, false, false, fmterr.Internalf(e, "operator %s not supported", e.Op.String())
}

func internaliseIf(s *scope, e *ast.If) ([]ir.SubExp, error) {
	cond, err := internaliseExp1(s, e.Cond)
	if err != nil {
		return nil, err
	}
	thenBody, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		return internaliseExp(inner, e.Then)
	})
	if err != nil {
		return nil, err
	}
	elseBody, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		return internaliseExp(inner, e.Else)
	})
	if err != nil {
		return nil, err
	}
	ret, err := ir.GeneraliseTypes(
		subExpTypes(thenBody.Result.Values),
		subExpTypes(elseBody.Result.Values),
	)
	if err != nil {
		return nil, fmterr.Position(e, err)
	}
	return s.bindSubExps("if", ir.If{Cond: cond, Then: thenBody, Else: elseBody, Ret: ret})
}

// internaliseCall lowers a function call: a trace intrinsic, a scalar
// builtin, or a call through the function table with shape arguments
// computed from the concrete argument types.
func internaliseCall(s *scope, e *ast.Apply) ([]ir.SubExp, error) {
	if e.Name == "trace" {
		// Diagnostic intrinsic: any arity, returns its arguments
		// unchanged.
		var values []ir.SubExp
		for _, arg := range e.Args {
			sub, err := internaliseExp(s, arg)
			if err != nil {
				return nil, err
			}
			values = append(values, sub...)
		}
		return values, nil
	}
	if b, ok := builtins[e.Name]; ok {
		return internaliseBuiltinCall(s, e, b)
	}
	info, ok := s.pass.ftable.Load(e.Name)
	if !ok {
		return nil, fmterr.Errorf(e, "unknown function %s", e.Name)
	}
	var valueArgs []ir.CallArg
	for _, arg := range e.Args {
		sub, err := internaliseExp(s, arg)
		if err != nil {
			return nil, err
		}
		for _, v := range sub {
			valueArgs = append(valueArgs, ir.CallArg{Value: v, Type: v.Type()})
		}
	}
	shapeArgs, err := shapeArguments(e, info, valueArgs)
	if err != nil {
		return nil, err
	}
	args := append(shapeArgs, valueArgs...)
	ret, ok := info.applyRetType(args)
	if !ok {
		return nil, errInapplicable(e, e.Name)
	}
	callArgs := make([]ir.Arg, len(args))
	for i, a := range args {
		// Shape arguments are observed; so are value arguments, since
		// the surface type system carries no consumption annotations.
		callArgs[i] = ir.Arg{Value: a.Value, Diet: ir.Observe}
	}
	return s.bindSubExps(e.Name, ir.Apply{Name: e.Name, Args: callArgs, Ret: ret})
}

func internaliseBuiltinCall(s *scope, e *ast.Apply, b builtin) ([]ir.SubExp, error) {
	if len(e.Args) != len(b.params) {
		return nil, errArity(e, e.Name, len(e.Args), len(b.params))
	}
	args := make([]ir.Arg, len(e.Args))
	for i, arg := range e.Args {
		v, err := internaliseExp1(s, arg)
		if err != nil {
			return nil, err
		}
		if v.Type().ElemType() != b.params[i] {
			return nil, fmterr.Errorf(arg, "argument %d of %s has type %s, want %s", i, e.Name, v.Type().String(), b.params[i].String())
		}
		args[i] = ir.Arg{Value: v, Diet: ir.Observe}
	}
	return s.bindSubExps(e.Name, ir.Apply{Name: e.Name, Args: args, Ret: []ir.ExtType{ir.PrimRetType(b.ret)}})
}

// shapeArguments derives the values of the callee's shape parameters by
// matching its declared parameter dimensions against the concrete types
// of the value arguments. This is the same name-substitution step the
// return-type algebra performs.
func shapeArguments(src ast.Node, info *funInfo, valueArgs []ir.CallArg) ([]ir.CallArg, error) {
	if len(valueArgs) != len(info.params) {
		return nil, errArity(src, info.name, len(valueArgs), len(info.params))
	}
	derived := ir.DimSubst{}
	shapeNames := map[ir.VName]bool{}
	for _, sp := range info.shapeParams {
		shapeNames[sp.Name] = true
	}
	for i, p := range info.params {
		declared, ok := p.Typ.(ir.ArrayType)
		if !ok {
			continue
		}
		actual, ok := valueArgs[i].Type.(ir.ArrayType)
		if !ok || len(actual.Dims) != len(declared.Dims) {
			return nil, errInapplicable(src, info.name)
		}
		for k, d := range declared.Dims {
			v, isVar := d.(ir.Var)
			if !isVar || !shapeNames[v.I.Name] {
				continue
			}
			if _, bound := derived[v.I.Name]; !bound {
				derived[v.I.Name] = actual.Dims[k]
			}
		}
	}
	shapeArgs := make([]ir.CallArg, len(info.shapeParams))
	for i, sp := range info.shapeParams {
		se, ok := derived[sp.Name]
		if !ok {
			return nil, fmterr.Internalf(src, "cannot derive shape argument %s of %s", sp.Name.String(), info.name)
		}
		shapeArgs[i] = ir.CallArg{Value: se, Type: ir.Int}
	}
	return shapeArgs, nil
}

func internaliseIndex(s *scope, e *ast.Index) ([]ir.SubExp, error) {
	arrs, err := s.lookup(e, e.Array)
	if err != nil {
		return nil, err
	}
	idx := make([]ir.SubExp, len(e.Idx))
	for i, ie := range e.Idx {
		if idx[i], err = internaliseExp1(s, ie); err != nil {
			return nil, err
		}
	}
	certs, err := s.boundsChecks(e, arrs[0], idx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]ir.SubExp, len(arrs))
	for c, arr := range arrs {
		if out[c], err = s.bindSubExp(arr.Name.Base, ir.Index{Certs: certs, Array: arr, Idx: idx}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func internaliseSize(s *scope, e *ast.Size) ([]ir.SubExp, error) {
	values, err := internaliseExp(s, e.Array)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmterr.Internalf(e, "size of an empty tuple")
	}
	arr, ok := values[0].Type().(ir.ArrayType)
	if !ok || e.Dim < 0 || e.Dim >= len(arr.Dims) {
		return nil, fmterr.Errorf(e, "type %s has no dimension %d", values[0].Type().String(), e.Dim)
	}
	return []ir.SubExp{arr.Dims[e.Dim]}, nil
}

func internaliseReplicate(s *scope, e *ast.Replicate) ([]ir.SubExp, error) {
	n, err := internaliseExp1(s, e.N)
	if err != nil {
		return nil, err
	}
	values, err := internaliseExp(s, e.V)
	if err != nil {
		return nil, err
	}
	out := make([]ir.SubExp, len(values))
	for i, v := range values {
		if out[i], err = s.bindSubExp("replicate", ir.Replicate{N: n, V: v}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func internaliseReshape(s *scope, e *ast.Reshape) ([]ir.SubExp, error) {
	shape := make([]ir.SubExp, len(e.Shape))
	var err error
	for i, se := range e.Shape {
		if shape[i], err = internaliseExp1(s, se); err != nil {
			return nil, err
		}
	}
	arrs, err := internaliseExpToIdents(s, "reshape_arg", e.Array)
	if err != nil {
		return nil, err
	}
	arrT, ok := arrs[0].Typ.(ir.ArrayType)
	if !ok {
		return nil, fmterr.Errorf(e, "cannot reshape type %s", arrs[0].Typ.String())
	}
	total, err := s.dimProduct(arrT.Dims)
	if err != nil {
		return nil, err
	}
	cert, err := s.productCert(e, shape, total)
	if err != nil {
		return nil, err
	}
	out := make([]ir.SubExp, len(arrs))
	for c, arr := range arrs {
		op := ir.Reshape{Certs: ir.Certificates{cert}, Shape: shape, Array: arr}
		if out[c], err = s.bindSubExp("reshape", op); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dimProduct binds the product of the dimensions of a shape.
func (s *scope) dimProduct(dims ir.Shape) (ir.SubExp, error) {
	product := dims[0]
	for _, d := range dims[1:] {
		next, err := s.bindSubExp("product", ir.BinOp{Op: ir.Times, X: product, Y: d, T: ir.Int})
		if err != nil {
			return nil, err
		}
		product = next
	}
	return product, nil
}

func internaliseRearrange(s *scope, e *ast.Rearrange) ([]ir.SubExp, error) {
	arrs, err := internaliseExpToIdents(s, "rearrange_arg", e.Array)
	if err != nil {
		return nil, err
	}
	out := make([]ir.SubExp, len(arrs))
	for c, arr := range arrs {
		if out[c], err = s.bindSubExp("rearrange", ir.Rearrange{Perm: e.Perm, Array: arr}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func internaliseSplit(s *scope, e *ast.Split) ([]ir.SubExp, error) {
	n, err := internaliseExp1(s, e.N)
	if err != nil {
		return nil, err
	}
	arrs, err := internaliseExpToIdents(s, "split_arg", e.Array)
	if err != nil {
		return nil, err
	}
	outer, err := ir.OuterDim(arrs[0].Typ)
	if err != nil {
		return nil, fmterr.Position(e, err)
	}
	rest, err := s.bindSubExp("split_rest", ir.BinOp{Op: ir.Minus, X: outer, Y: n, T: ir.Int})
	if err != nil {
		return nil, err
	}
	sizes := []ir.SubExp{n, rest}
	certs, err := s.splitCerts(e, sizes, outer)
	if err != nil {
		return nil, err
	}
	firsts := make([]ir.SubExp, len(arrs))
	seconds := make([]ir.SubExp, len(arrs))
	for c, arr := range arrs {
		parts, err := s.bindSubExps("split", ir.Split{Certs: certs, Sizes: sizes, Array: arr})
		if err != nil {
			return nil, err
		}
		firsts[c], seconds[c] = parts[0], parts[1]
	}
	return append(firsts, seconds...), nil
}

func internaliseConcat(s *scope, e *ast.Concat) ([]ir.SubExp, error) {
	xs, err := internaliseExpToIdents(s, "concat_x", e.X)
	if err != nil {
		return nil, err
	}
	ys, err := internaliseExpToIdents(s, "concat_y", e.Y)
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		return nil, fmterr.Internalf(e, "concat operands flatten into %d and %d value(s)", len(xs), len(ys))
	}
	xT, ok := xs[0].Typ.(ir.ArrayType)
	if !ok {
		return nil, fmterr.Errorf(e, "cannot concatenate type %s", xs[0].Typ.String())
	}
	yT, ok := ys[0].Typ.(ir.ArrayType)
	if !ok || len(yT.Dims) != len(xT.Dims) {
		return nil, fmterr.Errorf(e, "cannot concatenate types %s and %s", xs[0].Typ.String(), ys[0].Typ.String())
	}
	// Inner dimensions must agree for the rows to interleave.
	var certs ir.Certificates
	for k := 1; k < len(xT.Dims); k++ {
		if ir.SubExpEqual(xT.Dims[k], yT.Dims[k]) {
			continue
		}
		cert, err := s.equalCert(e, xT.Dims[k], yT.Dims[k])
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	size, err := s.bindSubExp("concat_size", ir.BinOp{Op: ir.Plus, X: xT.Dims[0], Y: yT.Dims[0], T: ir.Int})
	if err != nil {
		return nil, err
	}
	out := make([]ir.SubExp, len(xs))
	for c := range xs {
		op := ir.Concat{Certs: certs, X: xs[c], Y: ys[c], Size: size}
		if out[c], err = s.bindSubExp("concat", op); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func internaliseZip(s *scope, e *ast.Zip) ([]ir.SubExp, error) {
	var comps []ir.Ident
	for _, arr := range e.Arrays {
		ids, err := internaliseExpToIdents(s, "zip_arg", arr)
		if err != nil {
			return nil, err
		}
		comps = append(comps, ids...)
	}
	certs, err := s.shapeCerts(e, comps)
	if err != nil {
		return nil, err
	}
	s.addResultCerts(certs)
	return identRefs(comps), nil
}

// bindPattern extends the scope with the substitutions a surface pattern
// induces over flattened values.
func bindPattern(s *scope, pat ast.Pattern, values []ir.SubExp) (*scope, error) {
	binds := map[string][]ir.Ident{}
	rest, err := bindPatternInto(s, pat, values, binds)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmterr.Internalf(pat, "%d value(s) left over when binding pattern", len(rest))
	}
	return s.extend(binds), nil
}

func bindPatternInto(s *scope, pat ast.Pattern, values []ir.SubExp, binds map[string][]ir.Ident) ([]ir.SubExp, error) {
	switch pt := pat.(type) {
	case *ast.PatIdent:
		n := surfaceLeafCount(pt.T)
		if len(values) < n {
			return nil, errUnsupportedForm(pat, len(values))
		}
		ids := make([]ir.Ident, n)
		for i, v := range values[:n] {
			id, err := s.subExpIdent(pt.Name, v)
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
		binds[pt.Name] = ids
		return values[n:], nil
	case *ast.PatWildcard:
		n := surfaceLeafCount(pt.T)
		if len(values) < n {
			return nil, errUnsupportedForm(pat, len(values))
		}
		return values[n:], nil
	case *ast.PatTuple:
		var err error
		for _, el := range pt.Elems {
			if values, err = bindPatternInto(s, el, values, binds); err != nil {
				return nil, err
			}
		}
		return values, nil
	}
	return nil, fmterr.Internalf(pat, "pattern of type %T not supported", pat)
}
