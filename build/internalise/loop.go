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
	"github.com/pkg/errors"
	"github.com/rivelang/rive/build/fmterr"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
)

// Lowering of sequential loops. Every flattened component of the loop
// pattern becomes a value merge variable; the dimensions of array
// components become integer merge variables preceding them, so a body
// may produce arrays whose shape changes between iterations. A while
// loop carries its continuation flag as an extra boolean merge variable:
// the condition is lowered once against the merge parameters, then
// specialised twice by substitution, for the initial values and for the
// body's results.

func internaliseDoLoop(s *scope, e *ast.DoLoop) ([]ir.SubExp, error) {
	init, err := internaliseExp(s, e.Init)
	if err != nil {
		return nil, err
	}
	names, err := patternLeafNames(e.Pat, len(init))
	if err != nil {
		return nil, err
	}

	// One value merge variable per flattened component, preceded by the
	// merge variables carrying its dimensions.
	var merge []ir.MergeVar
	params := make([]ir.Ident, len(init))
	valueIdx := make([]int, len(init))
	for i, v := range init {
		t := v.Type()
		if arr, ok := t.(ir.ArrayType); ok {
			dims := make(ir.Shape, len(arr.Dims))
			for j, d := range arr.Dims {
				sp := ir.Ident{Name: s.fresh(names[i] + "_size"), Typ: ir.Int}
				merge = append(merge, ir.MergeVar{Param: sp, Init: d})
				dims[j] = sp.Ref()
			}
			t = ir.ArrayOf(arr.Elem, dims)
		}
		p := ir.Ident{Name: s.fresh(names[i]), Typ: t}
		valueIdx[i] = len(merge)
		merge = append(merge, ir.MergeVar{Param: p, Init: v})
		params[i] = p
	}
	binds := map[string][]ir.Ident{}
	if err := bindPatternIdents(e.Pat, params, binds); err != nil {
		return nil, err
	}

	var form ir.LoopForm
	var condBody *ir.Body
	var condParam ir.Ident
	switch ft := e.Form.(type) {
	case *ast.ForLoop:
		bound, err := internaliseExp1(s, ft.Bound)
		if err != nil {
			return nil, err
		}
		if !ir.TypeEqual(bound.Type(), ir.Int) {
			return nil, fmterr.Errorf(e, "loop bound must be an integer, got %s", bound.Type().String())
		}
		i := ir.Ident{Name: s.fresh(ft.IVar), Typ: ir.Int}
		binds[ft.IVar] = []ir.Ident{i}
		form = ir.ForLoop{I: i, Bound: bound}
	case *ast.WhileLoop:
		condBody, err = s.collect(func(inner *scope) ([]ir.SubExp, error) {
			c, err := internaliseExp1(inner.extend(binds), ft.Cond)
			if err != nil {
				return nil, err
			}
			if !ir.TypeEqual(c.Type(), ir.Bool) {
				return nil, fmterr.Errorf(e, "loop condition must be a boolean, got %s", c.Type().String())
			}
			return []ir.SubExp{c}, nil
		})
		if err != nil {
			return nil, err
		}
		// Specialise the condition to the initial merge values for the
		// first decision.
		subst := ir.DimSubst{}
		for _, m := range merge {
			subst[m.Param.Name] = m.Init
		}
		initCond, err := s.spliceBody(ir.SubstituteBody(condBody, subst, s.pass.names))
		if err != nil {
			return nil, err
		}
		condParam = ir.Ident{Name: s.fresh("loop_while"), Typ: ir.Bool}
		merge = append([]ir.MergeVar{{Param: condParam, Init: initCond}}, merge...)
		for i := range valueIdx {
			valueIdx[i]++
		}
		form = ir.WhileLoop{Cond: condParam}
	default:
		return nil, fmterr.Internalf(e, "loop form of type %T not supported", e.Form)
	}

	body, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		results, err := internaliseExp(inner.extend(binds), e.LoopBody)
		if err != nil {
			return nil, err
		}
		if len(results) != len(params) {
			return nil, errArity(e, "loop body", len(results), len(params))
		}
		var ordered []ir.SubExp
		if condBody != nil {
			// Recompute the continuation flag over the body's results.
			subst := ir.DimSubst{}
			for i, p := range params {
				subst[p.Name] = results[i]
			}
			nextCond, err := inner.spliceBody(ir.SubstituteBody(condBody, subst, inner.pass.names))
			if err != nil {
				return nil, err
			}
			ordered = append(ordered, nextCond)
		}
		for i, r := range results {
			p := params[i]
			rt := r.Type()
			if rt.ElemType() != p.Typ.ElemType() || rt.Rank() != p.Typ.Rank() {
				return nil, fmterr.Errorf(e, "loop body produces type %s where the pattern expects %s", rt.String(), p.Typ.String())
			}
			if arr, ok := rt.(ir.ArrayType); ok {
				ordered = append(ordered, arr.Dims...)
			}
			ordered = append(ordered, r)
		}
		return ordered, nil
	})
	if err != nil {
		return nil, err
	}

	resIds, err := s.bind("loop", ir.DoLoop{Merge: merge, Form: form, Body: body})
	if err != nil {
		return nil, err
	}
	final := make([]ir.Ident, len(params))
	for i, k := range valueIdx {
		final[i] = resIds[k]
	}
	contBinds := map[string][]ir.Ident{}
	if err := bindPatternIdents(e.Pat, final, contBinds); err != nil {
		return nil, err
	}
	return internaliseExp(s.extend(contBinds), e.Body)
}

// spliceBody folds a detached body into the one under construction and
// returns its single result value.
func (s *scope) spliceBody(b *ir.Body) (ir.SubExp, error) {
	s.acc.bindings = append(s.acc.bindings, b.Bindings...)
	s.acc.certs = append(s.acc.certs, b.Result.Certs...)
	if len(b.Result.Values) != 1 {
		return nil, fmterr.Internal(errors.Errorf("spliced body produces %d values where one was expected", len(b.Result.Values)))
	}
	return b.Result.Values[0], nil
}

// patternLeafNames returns one base name per flattened component of the
// pattern, checking that the pattern covers exactly n components.
func patternLeafNames(pat ast.Pattern, n int) ([]string, error) {
	var names []string
	var walk func(p ast.Pattern)
	walk = func(p ast.Pattern) {
		switch pt := p.(type) {
		case *ast.PatIdent:
			for i := 0; i < surfaceLeafCount(pt.T); i++ {
				names = append(names, pt.Name)
			}
		case *ast.PatWildcard:
			for i := 0; i < surfaceLeafCount(pt.T); i++ {
				names = append(names, "loop")
			}
		case *ast.PatTuple:
			for _, el := range pt.Elems {
				walk(el)
			}
		}
	}
	walk(pat)
	if len(names) != n {
		return nil, errArity(pat, "loop pattern", len(names), n)
	}
	return names, nil
}

// bindPatternIdents maps the pattern's names onto consecutive slices of
// already-bound identifiers.
func bindPatternIdents(pat ast.Pattern, ids []ir.Ident, binds map[string][]ir.Ident) error {
	rest, err := bindPatternIdentsInto(pat, ids, binds)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmterr.Internalf(pat, "%d identifier(s) left over when binding pattern", len(rest))
	}
	return nil
}

func bindPatternIdentsInto(pat ast.Pattern, ids []ir.Ident, binds map[string][]ir.Ident) ([]ir.Ident, error) {
	switch pt := pat.(type) {
	case *ast.PatIdent:
		n := surfaceLeafCount(pt.T)
		if len(ids) < n {
			return nil, errUnsupportedForm(pat, len(ids))
		}
		binds[pt.Name] = ids[:n]
		return ids[n:], nil
	case *ast.PatWildcard:
		n := surfaceLeafCount(pt.T)
		if len(ids) < n {
			return nil, errUnsupportedForm(pat, len(ids))
		}
		return ids[n:], nil
	case *ast.PatTuple:
		var err error
		for _, el := range pt.Elems {
			if ids, err = bindPatternIdentsInto(el, ids, binds); err != nil {
				return nil, err
			}
		}
		return ids, nil
	}
	return nil, fmterr.Internalf(pat, "pattern of type %T not supported", pat)
}
