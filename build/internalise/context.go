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
	"github.com/rivelang/rive/base/ordered"
	"github.com/rivelang/rive/build/fmterr"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
	"golang.org/x/exp/maps"
)

// pass is the state shared by the whole lowering of one program: the
// fresh-name supply, the function table and the bounds-checking policy.
// It is read-only once the table has been built, except for the name
// counter.
type pass struct {
	names       *ir.NameSource
	ftable      *ordered.Map[string, *funInfo]
	boundsCheck bool
}

// bodyAcc accumulates the bindings of the body under construction, plus
// the certificates its result must carry.
type bodyAcc struct {
	bindings []ir.Binding
	certs    ir.Certificates
}

// scope is the per-body view of the pass: the substitution environment
// mapping surface names to the internal identifiers they were flattened
// into, and the accumulator of the body under construction. Scopes are
// derived, used and discarded; a parent scope is never mutated by its
// children.
type scope struct {
	pass   *pass
	substs map[string][]ir.Ident
	acc    *bodyAcc
}

func (s *scope) fresh(base string) ir.VName {
	return s.pass.names.Fresh(base)
}

// lookup resolves a surface variable to its flattened identifiers.
func (s *scope) lookup(src ast.Node, name string) ([]ir.Ident, error) {
	ids, ok := s.substs[name]
	if !ok {
		return nil, errUnknownVariable(src, name)
	}
	return ids, nil
}

// extend derives a child scope with additional substitutions. The child
// appends to the same body accumulator; only the environment is shadowed.
func (s *scope) extend(binds map[string][]ir.Ident) *scope {
	substs := maps.Clone(s.substs)
	for name, ids := range binds {
		substs[name] = ids
	}
	return &scope{pass: s.pass, substs: substs, acc: s.acc}
}

// collect runs a sub-lowering against a fresh accumulator and returns the
// captured body instead of appending the bindings to the current one.
// Used when a combinator lambda or a loop body must be isolated.
func (s *scope) collect(f func(*scope) ([]ir.SubExp, error)) (*ir.Body, error) {
	inner := &scope{pass: s.pass, substs: s.substs, acc: &bodyAcc{}}
	values, err := f(inner)
	if err != nil {
		return nil, err
	}
	return &ir.Body{
		Bindings: inner.acc.bindings,
		Result:   ir.Result{Certs: inner.acc.certs, Values: values},
	}, nil
}

// addResultCerts records certificates the enclosing body's result must
// observe.
func (s *scope) addResultCerts(cs ir.Certificates) {
	s.acc.certs = append(s.acc.certs, cs...)
}

// bind appends a binding computing e and returns the identifiers holding
// its values. When e has existential result types, one fresh integer
// identifier per existential index is prepended to the pattern, resolving
// the existential context for the rest of the body; only the value
// identifiers are returned.
func (s *scope) bind(base string, e ir.Exp) ([]ir.Ident, error) {
	ets, err := ir.ExpTypes(e)
	if err != nil {
		return nil, fmterr.Internal(err)
	}
	var shapeIds []ir.Ident
	extIds := map[int]ir.Ident{}
	resolve := func(shape ir.ExtShape) ir.Shape {
		dims := make(ir.Shape, len(shape))
		for i, d := range shape {
			switch dt := d.(type) {
			case ir.Free:
				dims[i] = dt.D
			case ir.Ext:
				id, ok := extIds[dt.K]
				if !ok {
					id = ir.Ident{Name: s.fresh(base + "_size"), Typ: ir.Int}
					extIds[dt.K] = id
					shapeIds = append(shapeIds, id)
				}
				dims[i] = id.Ref()
			}
		}
		return dims
	}
	values := make([]ir.Ident, len(ets))
	for i, et := range ets {
		typ := ir.ArrayOf(et.Elem, resolve(et.Shape))
		values[i] = ir.Ident{Name: s.fresh(base), Typ: typ}
	}
	pat := append(shapeIds, values...)
	s.acc.bindings = append(s.acc.bindings, ir.Binding{Pat: pat, Exp: e})
	return values, nil
}

// bindSubExps binds e and returns its values as sub-expressions.
func (s *scope) bindSubExps(base string, e ir.Exp) ([]ir.SubExp, error) {
	ids, err := s.bind(base, e)
	if err != nil {
		return nil, err
	}
	ses := make([]ir.SubExp, len(ids))
	for i, id := range ids {
		ses[i] = id.Ref()
	}
	return ses, nil
}

// bindSubExp binds e, which must produce exactly one value.
func (s *scope) bindSubExp(base string, e ir.Exp) (ir.SubExp, error) {
	ses, err := s.bindSubExps(base, e)
	if err != nil {
		return nil, err
	}
	if len(ses) != 1 {
		return nil, fmterr.Internal(errors.Errorf("expression %s produces %d values where one was expected", e.String(), len(ses)))
	}
	return ses[0], nil
}

// bindCert binds an assertion and returns its certificate.
func (s *scope) bindCert(x ir.SubExp, loc ast.Pos) (ir.Ident, error) {
	ids, err := s.bind("assert", ir.Assert{X: x, Loc: loc})
	if err != nil {
		return ir.Ident{}, err
	}
	return ids[0], nil
}

// Error taxonomy of the pass. Every error is fatal: the first one aborts
// the lowering of the whole program.

func errUnknownVariable(src ast.Node, name string) error {
	return fmterr.Internalf(src, "unknown variable %s", name)
}

func errArity(src ast.Node, what string, got, want int) error {
	return fmterr.Errorf(src, "wrong arity for %s: got %d, want %d", what, got, want)
}

func errInapplicable(src ast.Node, fname string) error {
	return fmterr.Errorf(src, "cannot apply return type of %s to its arguments", fname)
}

func errInvalidValue(src ast.Node, v ast.Value) error {
	return fmterr.Errorf(src, "invalid value %s: shape does not match its type", v.String())
}

func errUnsupportedForm(src ast.Node, got int) error {
	return fmterr.Internalf(src, "expected a single sub-expression, got %d", got)
}
