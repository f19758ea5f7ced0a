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
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Structural validation of the binding discipline: every name referenced
// by a binding or a result is bound earlier in the same body or in an
// enclosing scope. Used by tests and by downstream passes to reject a
// malformed program early.

// CheckProgram validates the binding discipline of every function.
func CheckProgram(p *Program) error {
	var err error
	for _, f := range p.Funs {
		err = multierr.Append(err, CheckFun(f))
	}
	return err
}

// CheckFun validates the binding discipline of one function body.
func CheckFun(f *FunDecl) error {
	bound := map[VName]bool{}
	for _, p := range f.AllParams() {
		bound[p.Name] = true
	}
	if err := checkBody(f.Body, bound); err != nil {
		return errors.WithMessagef(err, "in function %s", f.Name)
	}
	return nil
}

func checkBody(b *Body, enclosing map[VName]bool) error {
	bound := make(map[VName]bool, len(enclosing))
	for n := range enclosing {
		bound[n] = true
	}
	for _, bnd := range b.Bindings {
		for _, n := range expRefs(bnd.Exp) {
			if !bound[n] {
				return errors.Errorf("%s is referenced before being bound", n.String())
			}
		}
		if err := checkSubBodies(bnd.Exp, bound); err != nil {
			return err
		}
		for _, id := range bnd.Pat {
			bound[id.Name] = true
		}
	}
	for _, c := range b.Result.Certs {
		if !bound[c.Name] {
			return errors.Errorf("certificate %s is referenced before being bound", c.Name.String())
		}
	}
	for _, v := range b.Result.Values {
		if n, ok := subExpRef(v); ok && !bound[n] {
			return errors.Errorf("result %s is referenced before being bound", n.String())
		}
	}
	return nil
}

func checkSubBodies(e Exp, bound map[VName]bool) error {
	withParams := func(b *Body, params []Param) error {
		inner := make(map[VName]bool, len(bound)+len(params))
		for n := range bound {
			inner[n] = true
		}
		for _, p := range params {
			inner[p.Name] = true
		}
		return checkBody(b, inner)
	}
	checkLambda := func(l *Lambda) error {
		return withParams(l.Body, l.Params)
	}
	switch et := e.(type) {
	case If:
		if err := checkBody(et.Then, bound); err != nil {
			return err
		}
		return checkBody(et.Else, bound)
	case DoLoop:
		params := make([]Param, 0, len(et.Merge)+1)
		for _, m := range et.Merge {
			params = append(params, m.Param)
		}
		if form, ok := et.Form.(ForLoop); ok {
			params = append(params, form.I)
		}
		return withParams(et.Body, params)
	case Map:
		return checkLambda(et.Fun)
	case Reduce:
		return checkLambda(et.Fun)
	case Scan:
		return checkLambda(et.Fun)
	case Redomap:
		if err := checkLambda(et.RedFun); err != nil {
			return err
		}
		return checkLambda(et.MapFun)
	case Stream:
		return checkLambda(et.Fun)
	case ConcatMap:
		return checkLambda(et.Fun)
	}
	return nil
}

func subExpRef(se SubExp) (VName, bool) {
	v, ok := se.(Var)
	if !ok {
		return VName{}, false
	}
	return v.I.Name, true
}

func subExpRefs(ses []SubExp) []VName {
	var ns []VName
	for _, se := range ses {
		if n, ok := subExpRef(se); ok {
			ns = append(ns, n)
		}
	}
	return ns
}

func identRefs(ids []Ident) []VName {
	ns := make([]VName, len(ids))
	for i, id := range ids {
		ns[i] = id.Name
	}
	return ns
}

// expRefs returns the names an expression references directly, not
// counting its sub-bodies.
func expRefs(e Exp) []VName {
	var ns []VName
	switch et := e.(type) {
	case BinOp:
		ns = subExpRefs([]SubExp{et.X, et.Y})
	case Not:
		ns = subExpRefs([]SubExp{et.X})
	case Negate:
		ns = subExpRefs([]SubExp{et.X})
	case Assert:
		ns = subExpRefs([]SubExp{et.X})
	case Index:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, et.Array.Name)
		ns = append(ns, subExpRefs(et.Idx)...)
	case Iota:
		ns = subExpRefs([]SubExp{et.N})
	case Replicate:
		ns = subExpRefs([]SubExp{et.N, et.V})
	case Reshape:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, subExpRefs(et.Shape)...)
		ns = append(ns, et.Array.Name)
	case Rearrange:
		ns = append(ns, et.Array.Name)
	case Split:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, subExpRefs(et.Sizes)...)
		ns = append(ns, et.Array.Name)
	case Concat:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, et.X.Name, et.Y.Name)
		ns = append(ns, subExpRefs([]SubExp{et.Size})...)
	case Copy:
		ns = subExpRefs([]SubExp{et.X})
	case ArrayLit:
		ns = subExpRefs(et.Elems)
	case If:
		ns = subExpRefs([]SubExp{et.Cond})
	case Apply:
		for _, a := range et.Args {
			ns = append(ns, subExpRefs([]SubExp{a.Value})...)
		}
	case DoLoop:
		for _, m := range et.Merge {
			ns = append(ns, subExpRefs([]SubExp{m.Init})...)
		}
		if form, ok := et.Form.(ForLoop); ok {
			ns = append(ns, subExpRefs([]SubExp{form.Bound})...)
		}
	case Map:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, identRefs(et.Arrays)...)
	case Reduce:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, subExpRefs(et.Neutral)...)
		ns = append(ns, identRefs(et.Arrays)...)
	case Scan:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, subExpRefs(et.Neutral)...)
		ns = append(ns, identRefs(et.Arrays)...)
	case Redomap:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, subExpRefs(et.Neutral)...)
		ns = append(ns, identRefs(et.Arrays)...)
	case Stream:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, identRefs(et.Arrays)...)
	case ConcatMap:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, identRefs(et.Arrays)...)
	case Partition:
		ns = append(ns, identRefs(et.Certs)...)
		ns = append(ns, identRefs(et.Flags)...)
		ns = append(ns, identRefs(et.Arrays)...)
	}
	return ns
}
