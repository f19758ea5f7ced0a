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
	"strings"
)

// Readable forms of the internal representation. These are the main
// observability surface of the lowering pass: tests and downstream passes
// print bodies to inspect what the internaliser produced.

func joinSubExps(ses []SubExp) string {
	ss := make([]string, len(ses))
	for i, se := range ses {
		ss[i] = se.String()
	}
	return strings.Join(ss, ", ")
}

func joinIdentNames(ids []Ident) string {
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = id.Name.String()
	}
	return strings.Join(ss, ", ")
}

func certsPrefix(cs Certificates) string {
	if len(cs) == 0 {
		return ""
	}
	return "<" + joinIdentNames(cs) + ">"
}

// String returns the operation in readable form.
func (e BinOp) String() string {
	return fmt.Sprintf("%s %s %s", e.X.String(), e.Op.String(), e.Y.String())
}

// String returns the operation in readable form.
func (e Not) String() string { return "!" + e.X.String() }

// String returns the operation in readable form.
func (e Negate) String() string { return "-" + e.X.String() }

// String returns the operation in readable form.
func (e Assert) String() string {
	return fmt.Sprintf("assert(%s) at %s", e.X.String(), e.Loc.String())
}

// String returns the operation in readable form.
func (e Index) String() string {
	idx := make([]string, len(e.Idx))
	for i, x := range e.Idx {
		idx[i] = "[" + x.String() + "]"
	}
	return certsPrefix(e.Certs) + e.Array.Name.String() + strings.Join(idx, "")
}

// String returns the operation in readable form.
func (e Iota) String() string { return fmt.Sprintf("iota(%s)", e.N.String()) }

// String returns the operation in readable form.
func (e Replicate) String() string {
	return fmt.Sprintf("replicate(%s, %s)", e.N.String(), e.V.String())
}

// String returns the operation in readable form.
func (e Reshape) String() string {
	return fmt.Sprintf("%sreshape((%s), %s)", certsPrefix(e.Certs), joinSubExps(e.Shape), e.Array.Name.String())
}

// String returns the operation in readable form.
func (e Rearrange) String() string {
	return fmt.Sprintf("rearrange(%v, %s)", e.Perm, e.Array.Name.String())
}

// String returns the operation in readable form.
func (e Split) String() string {
	return fmt.Sprintf("%ssplit((%s), %s)", certsPrefix(e.Certs), joinSubExps(e.Sizes), e.Array.Name.String())
}

// String returns the operation in readable form.
func (e Concat) String() string {
	return fmt.Sprintf("%sconcat(%s, %s)", certsPrefix(e.Certs), e.X.Name.String(), e.Y.Name.String())
}

// String returns the operation in readable form.
func (e Copy) String() string { return fmt.Sprintf("copy(%s)", e.X.String()) }

// String returns the operation in readable form.
func (e ArrayLit) String() string {
	return fmt.Sprintf("[%s]:%s", joinSubExps(e.Elems), e.ElemType.String())
}

// String returns the conditional with both bodies indented.
func (e If) String() string {
	return fmt.Sprintf("if %s then {\n%s} else {\n%s}", e.Cond.String(), indent(e.Then.String()), indent(e.Else.String()))
}

// String returns the call in readable form.
func (e Apply) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.Value.String()
		if a.Diet == Consume {
			args[i] = "*" + args[i]
		}
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
}

// String returns the loop with its body indented.
func (e DoLoop) String() string {
	merge := make([]string, len(e.Merge))
	for i, m := range e.Merge {
		merge[i] = fmt.Sprintf("%s = %s", m.Param.String(), m.Init.String())
	}
	var form string
	switch ft := e.Form.(type) {
	case ForLoop:
		form = fmt.Sprintf("for %s < %s", ft.I.Name.String(), ft.Bound.String())
	case WhileLoop:
		form = fmt.Sprintf("while %s", ft.Cond.Name.String())
	}
	return fmt.Sprintf("loop {%s} %s do {\n%s}", strings.Join(merge, ", "), form, indent(e.Body.String()))
}

// String returns the operator in readable form.
func (e Map) String() string {
	return fmt.Sprintf("%smap(%s, %s)", certsPrefix(e.Certs), e.Fun.String(), joinIdentNames(e.Arrays))
}

// String returns the operator in readable form.
func (e Reduce) String() string {
	return fmt.Sprintf("%sreduce(%s, (%s), %s)", certsPrefix(e.Certs), e.Fun.String(), joinSubExps(e.Neutral), joinIdentNames(e.Arrays))
}

// String returns the operator in readable form.
func (e Scan) String() string {
	return fmt.Sprintf("%sscan(%s, (%s), %s)", certsPrefix(e.Certs), e.Fun.String(), joinSubExps(e.Neutral), joinIdentNames(e.Arrays))
}

// String returns the operator in readable form.
func (e Redomap) String() string {
	return fmt.Sprintf("%sredomap(%s, %s, (%s), %s)", certsPrefix(e.Certs), e.RedFun.String(), e.MapFun.String(), joinSubExps(e.Neutral), joinIdentNames(e.Arrays))
}

// String returns the operator in readable form.
func (e Stream) String() string {
	return fmt.Sprintf("%sstream(%s, %s)", certsPrefix(e.Certs), e.Fun.String(), joinIdentNames(e.Arrays))
}

// String returns the operator in readable form.
func (e ConcatMap) String() string {
	return fmt.Sprintf("%sconcatMap(%s, %s)", certsPrefix(e.Certs), e.Fun.String(), joinIdentNames(e.Arrays))
}

// String returns the operator in readable form.
func (e Partition) String() string {
	return fmt.Sprintf("%spartition((%s), %s)", certsPrefix(e.Certs), joinIdentNames(e.Flags), joinIdentNames(e.Arrays))
}

// String returns the binding in destination = expression form.
func (b Binding) String() string {
	return fmt.Sprintf("let {%s} = %s", joinIdentNames(b.Pat), b.Exp.String())
}

// String returns the result values with their certificates.
func (r Result) String() string {
	s := "{" + joinSubExps(r.Values) + "}"
	if len(r.Certs) > 0 {
		s = certsPrefix(r.Certs) + s
	}
	return s
}

// String returns the body, one binding per line.
func (b *Body) String() string {
	var s strings.Builder
	for _, bnd := range b.Bindings {
		s.WriteString(bnd.String())
		s.WriteString("\n")
	}
	s.WriteString(b.Result.String())
	s.WriteString("\n")
	return s.String()
}

// String returns the lambda with its body indented.
func (l *Lambda) String() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("fn(%s) => {\n%s}", strings.Join(params, ", "), indent(l.Body.String()))
}

// String returns the declaration with its body indented.
func (f *FunDecl) String() string {
	ret := make([]string, len(f.Ret))
	for i, t := range f.Ret {
		ret[i] = t.String()
	}
	params := make([]string, 0, len(f.ShapeParams)+len(f.Params))
	for _, p := range f.ShapeParams {
		params = append(params, p.String())
	}
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	return fmt.Sprintf("fun {%s} %s(%s) = {\n%s}", strings.Join(ret, ", "), f.Name, strings.Join(params, ", "), indent(f.Body.String()))
}

// String returns all function declarations, in order.
func (p *Program) String() string {
	ss := make([]string, len(p.Funs))
	for i, f := range p.Funs {
		ss[i] = f.String()
	}
	return strings.Join(ss, "\n\n")
}

func indent(s string) string {
	var b strings.Builder
	for line := range strings.Lines(s) {
		b.WriteString("  ")
		b.WriteString(line)
	}
	return b.String()
}
