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

// Lowering of the second-order array combinators. Every combinator
// becomes a primitive loop operator applied to an internalised lambda
// whose parameter types are the flattened row types of the combinator's
// arrays. A lambda that does not fit its expected parameter types is a
// fatal error: it means the surface checker's output disagrees with this
// pass's assumptions.

// soacArrays lowers the array argument of a combinator into its flattened
// components and asserts that their outer extents stay in lock-step.
func soacArrays(s *scope, src ast.Node, arr ast.Exp) ([]ir.Ident, ir.Certificates, error) {
	ids, err := internaliseExpToIdents(s, "soac_arg", arr)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, fmterr.Internalf(src, "combinator applied to an empty tuple")
	}
	certs, err := s.shapeCerts(src, ids)
	if err != nil {
		return nil, nil, err
	}
	return ids, certs, nil
}

func rowTypesOf(src ast.Node, arrays []ir.Ident) ([]ir.Type, error) {
	ts := make([]ir.Type, len(arrays))
	for i, arr := range arrays {
		t, err := ir.RowType(arr.Typ, 1)
		if err != nil {
			return nil, fmterr.Position(src, err)
		}
		ts[i] = t
	}
	return ts, nil
}

// internaliseLambda lowers a combinator lambda against the flattened
// types of the values it will receive.
func internaliseLambda(s *scope, lam *ast.Lambda, paramTypes []ir.Type) (*ir.Lambda, error) {
	params, binds, err := lambdaParams(s, lam, paramTypes)
	if err != nil {
		return nil, err
	}
	body, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		return internaliseExp(inner.extend(binds), lam.Body)
	})
	if err != nil {
		return nil, err
	}
	return &ir.Lambda{
		Params: params,
		Body:   body,
		Ret:    subExpTypes(body.Result.Values),
	}, nil
}

// lambdaParams flattens the lambda's surface parameters against the
// provided internal types. The counts and scalar/rank structure must
// agree exactly.
func lambdaParams(s *scope, lam *ast.Lambda, paramTypes []ir.Type) ([]ir.Param, map[string][]ir.Ident, error) {
	total := 0
	for _, p := range lam.Params {
		total += surfaceLeafCount(p.T)
	}
	if total != len(paramTypes) {
		return nil, nil, errArity(lam, "lambda", total, len(paramTypes))
	}
	var params []ir.Param
	binds := map[string][]ir.Ident{}
	next := 0
	for _, p := range lam.Params {
		declared, err := flattenType(p.T, extDimConv(nil))
		if err != nil {
			return nil, nil, fmterr.Position(p, err)
		}
		ids := make([]ir.Ident, len(declared))
		for i, leaf := range declared {
			got := paramTypes[next]
			if got.ElemType() != leaf.Elem || got.Rank() != leaf.Rank() {
				return nil, nil, fmterr.Errorf(p, "lambda parameter %s expects type %s, got %s", p.Name, leaf.String(), got.String())
			}
			ids[i] = ir.Ident{Name: s.fresh(p.Name), Typ: got}
			next++
		}
		params = append(params, ids...)
		binds[p.Name] = ids
	}
	return params, binds, nil
}

// ensureShapes forces neutral elements onto the row types of the arrays
// they accumulate over, inserting a reshape when a neutral element's
// statically unknown shape must match the array's per-element shape.
func ensureShapes(s *scope, src ast.Node, values []ir.SubExp, want []ir.Type) ([]ir.SubExp, error) {
	if len(values) != len(want) {
		return nil, errArity(src, "neutral element", len(values), len(want))
	}
	out := make([]ir.SubExp, len(values))
	for i, v := range values {
		w := want[i]
		if v.Type().ElemType() != w.ElemType() || v.Type().Rank() != w.Rank() {
			return nil, fmterr.Errorf(src, "neutral element has type %s, want %s", v.Type().String(), w.String())
		}
		if ir.TypeEqual(v.Type(), w) {
			out[i] = v
			continue
		}
		arrT := w.(ir.ArrayType)
		id, err := s.subExpIdent("neutral", v)
		if err != nil {
			return nil, err
		}
		total, err := s.dimProduct(v.Type().(ir.ArrayType).Dims)
		if err != nil {
			return nil, err
		}
		cert, err := s.productCert(src, arrT.Dims, total)
		if err != nil {
			return nil, err
		}
		op := ir.Reshape{Certs: ir.Certificates{cert}, Shape: arrT.Dims, Array: id}
		if out[i], err = s.bindSubExp("neutral", op); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func internaliseMap(s *scope, e *ast.Map) ([]ir.SubExp, error) {
	arrays, certs, err := soacArrays(s, e, e.Arr)
	if err != nil {
		return nil, err
	}
	rows, err := rowTypesOf(e, arrays)
	if err != nil {
		return nil, err
	}
	fun, err := internaliseLambda(s, e.Fun, rows)
	if err != nil {
		return nil, err
	}
	return s.bindSubExps("map", ir.Map{Certs: certs, Fun: fun, Arrays: arrays})
}

func internaliseReduce(s *scope, e *ast.Reduce) ([]ir.SubExp, error) {
	arrays, certs, err := soacArrays(s, e, e.Arr)
	if err != nil {
		return nil, err
	}
	rows, err := rowTypesOf(e, arrays)
	if err != nil {
		return nil, err
	}
	neutral, err := internaliseExp(s, e.Neutral)
	if err != nil {
		return nil, err
	}
	if neutral, err = ensureShapes(s, e, neutral, rows); err != nil {
		return nil, err
	}
	fun, err := internaliseLambda(s, e.Fun, append(append([]ir.Type{}, rows...), rows...))
	if err != nil {
		return nil, err
	}
	return s.bindSubExps("reduce", ir.Reduce{Certs: certs, Fun: fun, Neutral: neutral, Arrays: arrays})
}

func internaliseScan(s *scope, e *ast.Scan) ([]ir.SubExp, error) {
	arrays, certs, err := soacArrays(s, e, e.Arr)
	if err != nil {
		return nil, err
	}
	rows, err := rowTypesOf(e, arrays)
	if err != nil {
		return nil, err
	}
	neutral, err := internaliseExp(s, e.Neutral)
	if err != nil {
		return nil, err
	}
	if neutral, err = ensureShapes(s, e, neutral, rows); err != nil {
		return nil, err
	}
	fun, err := internaliseLambda(s, e.Fun, append(append([]ir.Type{}, rows...), rows...))
	if err != nil {
		return nil, err
	}
	return s.bindSubExps("scan", ir.Scan{Certs: certs, Fun: fun, Neutral: neutral, Arrays: arrays})
}

func internaliseRedomap(s *scope, e *ast.Redomap) ([]ir.SubExp, error) {
	arrays, certs, err := soacArrays(s, e, e.Arr)
	if err != nil {
		return nil, err
	}
	rows, err := rowTypesOf(e, arrays)
	if err != nil {
		return nil, err
	}
	mapFun, err := internaliseLambda(s, e.MapFun, rows)
	if err != nil {
		return nil, err
	}
	neutral, err := internaliseExp(s, e.Neutral)
	if err != nil {
		return nil, err
	}
	accTypes := subExpTypes(neutral)
	redFun, err := internaliseLambda(s, e.RedFun, append(append([]ir.Type{}, accTypes...), mapFun.Ret...))
	if err != nil {
		return nil, err
	}
	if neutral, err = ensureShapes(s, e, neutral, redFun.Ret); err != nil {
		return nil, err
	}
	op := ir.Redomap{Certs: certs, RedFun: redFun, MapFun: mapFun, Neutral: neutral, Arrays: arrays}
	return s.bindSubExps("redomap", op)
}

// flagLambda fuses the predicate lambdas of a filter or partition into one
// lambda producing one boolean per class for every element.
func flagLambda(s *scope, src ast.Node, preds []*ast.Lambda, rows []ir.Type) (*ir.Lambda, error) {
	if len(preds) == 0 {
		return nil, fmterr.Internalf(src, "partition without predicates")
	}
	params, _, err := lambdaParams(s, preds[0], rows)
	if err != nil {
		return nil, err
	}
	body, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		var flags []ir.SubExp
		for _, pred := range preds {
			_, binds, err := predBinds(inner, pred, params, rows)
			if err != nil {
				return nil, err
			}
			flag, err := internaliseExp1(inner.extend(binds), pred.Body)
			if err != nil {
				return nil, err
			}
			if flag.Type().ElemType() != ir.Bool || flag.Type().Rank() != 0 {
				return nil, fmterr.Errorf(pred, "predicate must produce a boolean, got %s", flag.Type().String())
			}
			flags = append(flags, flag)
		}
		return flags, nil
	})
	if err != nil {
		return nil, err
	}
	return &ir.Lambda{
		Params: params,
		Body:   body,
		Ret:    subExpTypes(body.Result.Values),
	}, nil
}

// predBinds maps one predicate's surface parameters onto the shared flag
// lambda parameters.
func predBinds(s *scope, pred *ast.Lambda, params []ir.Param, rows []ir.Type) ([]ir.Param, map[string][]ir.Ident, error) {
	total := 0
	for _, p := range pred.Params {
		total += surfaceLeafCount(p.T)
	}
	if total != len(params) {
		return nil, nil, errArity(pred, "predicate", total, len(params))
	}
	binds := map[string][]ir.Ident{}
	next := 0
	for _, p := range pred.Params {
		n := surfaceLeafCount(p.T)
		ids := make([]ir.Ident, n)
		for i := range ids {
			if params[next].Typ.ElemType() != rows[next].ElemType() {
				return nil, nil, fmterr.Errorf(p, "predicate parameter %s does not match element type %s", p.Name, rows[next].String())
			}
			ids[i] = params[next]
			next++
		}
		binds[p.Name] = ids
	}
	return params, binds, nil
}

// partitionClasses lowers the shared machinery of filter and partition:
// flag every element, reorder by class with the partition primitive, then
// split the reordering by the per-class sizes. It returns the classes in
// order: classes[k] lists, per input component, the array of elements in
// class k.
func partitionClasses(s *scope, src ast.Node, preds []*ast.Lambda, arr ast.Exp) (classes [][]ir.SubExp, sizes []ir.SubExp, err error) {
	arrays, certs, err := soacArrays(s, src, arr)
	if err != nil {
		return nil, nil, err
	}
	rows, err := rowTypesOf(src, arrays)
	if err != nil {
		return nil, nil, err
	}
	fun, err := flagLambda(s, src, preds, rows)
	if err != nil {
		return nil, nil, err
	}
	flagIds, err := s.bind("flags", ir.Map{Certs: certs, Fun: fun, Arrays: arrays})
	if err != nil {
		return nil, nil, err
	}
	op := ir.Partition{Certs: certs, Flags: flagIds, Arrays: arrays}
	results, err := s.bind("partition", op)
	if err != nil {
		return nil, nil, err
	}
	nclasses := len(preds) + 1
	sizes = identRefs(results[:nclasses])
	reordered := results[nclasses:]
	outer, err := ir.OuterDim(arrays[0].Typ)
	if err != nil {
		return nil, nil, fmterr.Position(src, err)
	}
	splitCerts, err := s.splitCerts(src, sizes, outer)
	if err != nil {
		return nil, nil, err
	}
	classes = make([][]ir.SubExp, nclasses)
	for _, arr := range reordered {
		parts, err := s.bindSubExps("class", ir.Split{Certs: splitCerts, Sizes: sizes, Array: arr})
		if err != nil {
			return nil, nil, err
		}
		for k, part := range parts {
			classes[k] = append(classes[k], part)
		}
	}
	return classes, sizes, nil
}

func internaliseFilter(s *scope, e *ast.Filter) ([]ir.SubExp, error) {
	classes, _, err := partitionClasses(s, e, []*ast.Lambda{e.Fun}, e.Arr)
	if err != nil {
		return nil, err
	}
	// Only the class of elements satisfying the predicate survives.
	return classes[0], nil
}

func internalisePartition(s *scope, e *ast.Partition) ([]ir.SubExp, error) {
	classes, _, err := partitionClasses(s, e, e.Funs, e.Arr)
	if err != nil {
		return nil, err
	}
	var out []ir.SubExp
	for _, class := range classes {
		out = append(out, class...)
	}
	return out, nil
}

func internaliseStream(s *scope, e *ast.Stream) ([]ir.SubExp, error) {
	arrays, certs, err := soacArrays(s, e, e.Arr)
	if err != nil {
		return nil, err
	}
	if len(e.Fun.Params) < 2 {
		return nil, errArity(e.Fun, "stream lambda", len(e.Fun.Params), 2+len(arrays))
	}
	// The chunk-size and chunk-offset parameters are internalised first;
	// the chunk array types are the input types with their outer
	// dimension replaced by the chunk size.
	chunk := ir.Ident{Name: s.fresh(e.Fun.Params[0].Name), Typ: ir.Int}
	offset := ir.Ident{Name: s.fresh(e.Fun.Params[1].Name), Typ: ir.Int}
	chunkTypes := make([]ir.Type, len(arrays))
	for i, arr := range arrays {
		arrT, ok := arr.Typ.(ir.ArrayType)
		if !ok {
			return nil, fmterr.Errorf(e, "cannot stream over type %s", arr.Typ.String())
		}
		dims := append(ir.Shape{chunk.Ref()}, arrT.Dims[1:]...)
		chunkTypes[i] = ir.ArrayOf(arrT.Elem, dims)
	}
	rest := &ast.Lambda{Params: e.Fun.Params[2:], Body: e.Fun.Body, Ret: e.Fun.Ret, P: e.Fun.P}
	arrParams, binds, err := lambdaParams(s, rest, chunkTypes)
	if err != nil {
		return nil, err
	}
	binds[e.Fun.Params[0].Name] = []ir.Ident{chunk}
	binds[e.Fun.Params[1].Name] = []ir.Ident{offset}
	body, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		return internaliseExp(inner.extend(binds), e.Fun.Body)
	})
	if err != nil {
		return nil, err
	}
	fun := &ir.Lambda{
		Params: append([]ir.Param{chunk, offset}, arrParams...),
		Body:   body,
		Ret:    subExpTypes(body.Result.Values),
	}
	return s.bindSubExps("stream", ir.Stream{Certs: certs, Fun: fun, Arrays: arrays})
}

func internaliseConcatMap(s *scope, e *ast.ConcatMap) ([]ir.SubExp, error) {
	arrays, certs, err := soacArrays(s, e, e.Arr)
	if err != nil {
		return nil, err
	}
	rows, err := rowTypesOf(e, arrays)
	if err != nil {
		return nil, err
	}
	fun, err := internaliseLambda(s, e.Fun, rows)
	if err != nil {
		return nil, err
	}
	for _, rt := range fun.Ret {
		if rt.Rank() == 0 {
			return nil, fmterr.Errorf(e, "concat-map lambda must produce arrays, got %s", rt.String())
		}
	}
	return s.bindSubExps("concat_map", ir.ConcatMap{Certs: certs, Fun: fun, Arrays: arrays})
}
