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

import "golang.org/x/exp/maps"

// Substitution over bodies. The internaliser lowers a while-loop's
// condition once and then specialises it twice by substitution: once
// against the initial merge values and once against the body's results.
// Each specialisation duplicates the condition's bindings under fresh
// names, so the same source lowering can appear both before the loop and
// inside its body. The downstream renamer relies on the same mechanism.

// SubstituteSubExp rewrites a sub-expression under the substitution. A
// variable whose name is mapped is replaced by its mapping; other
// variables keep their name but have their type's dimensions rewritten.
func SubstituteSubExp(se SubExp, s DimSubst) SubExp {
	v, ok := se.(Var)
	if !ok {
		return se
	}
	if repl, ok := s[v.I.Name]; ok {
		return repl
	}
	return Var{I: SubstituteIdent(v.I, s)}
}

// SubstituteIdent rewrites the dimensions of an identifier's type. If the
// identifier itself is mapped to a variable, that variable is returned.
func SubstituteIdent(id Ident, s DimSubst) Ident {
	if repl, ok := s[id.Name]; ok {
		if v, isVar := repl.(Var); isVar {
			return v.I
		}
	}
	return Ident{Name: id.Name, Typ: SubstituteType(id.Typ, s)}
}

func substituteSubExps(ses []SubExp, s DimSubst) []SubExp {
	out := make([]SubExp, len(ses))
	for i, se := range ses {
		out[i] = SubstituteSubExp(se, s)
	}
	return out
}

func substituteIdents(ids []Ident, s DimSubst) []Ident {
	out := make([]Ident, len(ids))
	for i, id := range ids {
		out[i] = SubstituteIdent(id, s)
	}
	return out
}

func substituteCerts(cs Certificates, s DimSubst) Certificates {
	if len(cs) == 0 {
		return nil
	}
	return Certificates(substituteIdents(cs, s))
}

func substituteArgs(args []Arg, s DimSubst) []Arg {
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = Arg{Value: SubstituteSubExp(a.Value, s), Diet: a.Diet}
	}
	return out
}

func substituteExtTypes(ts []ExtType, s DimSubst) []ExtType {
	out := make([]ExtType, len(ts))
	for i, t := range ts {
		out[i] = SubstituteExtType(t, s)
	}
	return out
}

// SubstituteExp rewrites every operand of an expression. Sub-bodies are
// duplicated with fresh binding names drawn from the name source.
func SubstituteExp(e Exp, s DimSubst, names *NameSource) Exp {
	switch et := e.(type) {
	case BinOp:
		return BinOp{Op: et.Op, X: SubstituteSubExp(et.X, s), Y: SubstituteSubExp(et.Y, s), T: et.T}
	case Not:
		return Not{X: SubstituteSubExp(et.X, s)}
	case Negate:
		return Negate{X: SubstituteSubExp(et.X, s), T: et.T}
	case Assert:
		return Assert{X: SubstituteSubExp(et.X, s), Loc: et.Loc}
	case Index:
		return Index{
			Certs: substituteCerts(et.Certs, s),
			Array: SubstituteIdent(et.Array, s),
			Idx:   substituteSubExps(et.Idx, s),
		}
	case Iota:
		return Iota{N: SubstituteSubExp(et.N, s)}
	case Replicate:
		return Replicate{N: SubstituteSubExp(et.N, s), V: SubstituteSubExp(et.V, s)}
	case Reshape:
		return Reshape{
			Certs: substituteCerts(et.Certs, s),
			Shape: substituteSubExps(et.Shape, s),
			Array: SubstituteIdent(et.Array, s),
		}
	case Rearrange:
		return Rearrange{Perm: et.Perm, Array: SubstituteIdent(et.Array, s)}
	case Split:
		return Split{
			Certs: substituteCerts(et.Certs, s),
			Sizes: substituteSubExps(et.Sizes, s),
			Array: SubstituteIdent(et.Array, s),
		}
	case Concat:
		return Concat{
			Certs: substituteCerts(et.Certs, s),
			X:     SubstituteIdent(et.X, s),
			Y:     SubstituteIdent(et.Y, s),
			Size:  SubstituteSubExp(et.Size, s),
		}
	case Copy:
		return Copy{X: SubstituteSubExp(et.X, s)}
	case ArrayLit:
		return ArrayLit{Elems: substituteSubExps(et.Elems, s), ElemType: SubstituteType(et.ElemType, s)}
	case If:
		return If{
			Cond: SubstituteSubExp(et.Cond, s),
			Then: SubstituteBody(et.Then, s, names),
			Else: SubstituteBody(et.Else, s, names),
			Ret:  substituteExtTypes(et.Ret, s),
		}
	case Apply:
		return Apply{Name: et.Name, Args: substituteArgs(et.Args, s), Ret: substituteExtTypes(et.Ret, s)}
	case DoLoop:
		return substituteLoop(et, s, names)
	case Map:
		return Map{
			Certs:  substituteCerts(et.Certs, s),
			Fun:    SubstituteLambda(et.Fun, s, names),
			Arrays: substituteIdents(et.Arrays, s),
		}
	case Reduce:
		return Reduce{
			Certs:   substituteCerts(et.Certs, s),
			Fun:     SubstituteLambda(et.Fun, s, names),
			Neutral: substituteSubExps(et.Neutral, s),
			Arrays:  substituteIdents(et.Arrays, s),
		}
	case Scan:
		return Scan{
			Certs:   substituteCerts(et.Certs, s),
			Fun:     SubstituteLambda(et.Fun, s, names),
			Neutral: substituteSubExps(et.Neutral, s),
			Arrays:  substituteIdents(et.Arrays, s),
		}
	case Redomap:
		return Redomap{
			Certs:   substituteCerts(et.Certs, s),
			RedFun:  SubstituteLambda(et.RedFun, s, names),
			MapFun:  SubstituteLambda(et.MapFun, s, names),
			Neutral: substituteSubExps(et.Neutral, s),
			Arrays:  substituteIdents(et.Arrays, s),
		}
	case Stream:
		return Stream{
			Certs:  substituteCerts(et.Certs, s),
			Fun:    SubstituteLambda(et.Fun, s, names),
			Arrays: substituteIdents(et.Arrays, s),
		}
	case ConcatMap:
		return ConcatMap{
			Certs:  substituteCerts(et.Certs, s),
			Fun:    SubstituteLambda(et.Fun, s, names),
			Arrays: substituteIdents(et.Arrays, s),
		}
	case Partition:
		return Partition{
			Certs:  substituteCerts(et.Certs, s),
			Flags:  substituteIdents(et.Flags, s),
			Arrays: substituteIdents(et.Arrays, s),
		}
	}
	return e
}

func substituteLoop(loop DoLoop, s DimSubst, names *NameSource) DoLoop {
	s = maps.Clone(s)
	merge := make([]MergeVar, len(loop.Merge))
	for i, m := range loop.Merge {
		init := SubstituteSubExp(m.Init, s)
		param := Ident{Name: names.Fresh(m.Param.Name.Base), Typ: SubstituteType(m.Param.Typ, s)}
		s[m.Param.Name] = param.Ref()
		merge[i] = MergeVar{Param: param, Init: init}
	}
	var form LoopForm
	switch ft := loop.Form.(type) {
	case ForLoop:
		i := Ident{Name: names.Fresh(ft.I.Name.Base), Typ: ft.I.Typ}
		s[ft.I.Name] = i.Ref()
		form = ForLoop{I: i, Bound: SubstituteSubExp(ft.Bound, s)}
	case WhileLoop:
		form = WhileLoop{Cond: SubstituteIdent(ft.Cond, s)}
	}
	return DoLoop{Merge: merge, Form: form, Body: SubstituteBody(loop.Body, s, names)}
}

// SubstituteLambda duplicates a lambda under the substitution, renaming
// its parameters.
func SubstituteLambda(l *Lambda, s DimSubst, names *NameSource) *Lambda {
	s = maps.Clone(s)
	params := make([]Param, len(l.Params))
	for i, p := range l.Params {
		np := Ident{Name: names.Fresh(p.Name.Base), Typ: SubstituteType(p.Typ, s)}
		s[p.Name] = np.Ref()
		params[i] = np
	}
	ret := make([]Type, len(l.Ret))
	for i, t := range l.Ret {
		ret[i] = SubstituteType(t, s)
	}
	return &Lambda{Params: params, Body: SubstituteBody(l.Body, s, names), Ret: ret}
}

// SubstituteBody duplicates a body under the substitution. Every binding
// receives fresh destination names so the copy can live in the same scope
// as the original.
func SubstituteBody(b *Body, s DimSubst, names *NameSource) *Body {
	s = maps.Clone(s)
	out := &Body{}
	for _, bnd := range b.Bindings {
		e := SubstituteExp(bnd.Exp, s, names)
		pat := make([]Ident, len(bnd.Pat))
		for i, id := range bnd.Pat {
			nid := Ident{Name: names.Fresh(id.Name.Base), Typ: SubstituteType(id.Typ, s)}
			s[id.Name] = nid.Ref()
			pat[i] = nid
		}
		out.Bindings = append(out.Bindings, Binding{Pat: pat, Exp: e})
	}
	out.Result = Result{
		Certs:  substituteCerts(b.Result.Certs, s),
		Values: substituteSubExps(b.Result.Values, s),
	}
	return out
}
