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

// The return-type algebra: instantiating a function's existentially shaped
// return type against the concrete values of a call site.
//
// Resolution happens in two phases. First, every dimension naming a formal
// parameter is rewritten to the corresponding concrete argument (dependent
// shapes). Second, dimensions bound to a true existential index stay
// existential: the caller materialises them right after the call returns,
// by prefixing the binding pattern with fresh shape identifiers.

// DimSubst maps parameter names to the sub-expressions replacing them in a
// dependent shape.
type DimSubst map[VName]SubExp

// SubstituteDim rewrites a dimension referencing a name in the
// substitution to the name's replacement.
func SubstituteDim(d SubExp, s DimSubst) SubExp {
	v, ok := d.(Var)
	if !ok {
		return d
	}
	if repl, ok := s[v.I.Name]; ok {
		return repl
	}
	return d
}

// SubstituteType rewrites every dimension of a concrete type.
func SubstituteType(t Type, s DimSubst) Type {
	arr, ok := t.(ArrayType)
	if !ok {
		return t
	}
	dims := make(Shape, len(arr.Dims))
	for i, d := range arr.Dims {
		dims[i] = SubstituteDim(d, s)
	}
	return ArrayOf(arr.Elem, dims)
}

// SubstituteExtType rewrites every free dimension of an existential type.
// Existential dimensions are untouched.
func SubstituteExtType(t ExtType, s DimSubst) ExtType {
	shape := make(ExtShape, len(t.Shape))
	for i, d := range t.Shape {
		if free, ok := d.(Free); ok {
			shape[i] = Free{D: SubstituteDim(free.D, s)}
		} else {
			shape[i] = d
		}
	}
	return ExtType{Elem: t.Elem, Shape: shape}
}

// PrimRetType lifts a scalar type to a trivial return type with no shape
// context.
func PrimRetType(t PrimType) ExtType {
	return ExtType{Elem: t}
}

// CallArg is one concrete call argument: its value and its type.
type CallArg struct {
	Value SubExp
	Type  Type
}

// ApplyRetType instantiates the declared return types of a function
// against the concrete arguments of a call. It returns false when the
// return types are not applicable to the arguments: wrong arity, or an
// argument whose rank, element type or any fixed dimension disagrees with
// the expected parameter type. Inapplicability is not an error value
// because the decision belongs to the caller.
func ApplyRetType(rts []ExtType, params []Param, args []CallArg) ([]ExtType, bool) {
	if len(params) != len(args) {
		return nil, false
	}
	subst := make(DimSubst, len(params))
	for i, p := range params {
		subst[p.Name] = args[i].Value
	}
	for i, p := range params {
		expected := SubstituteType(p.Typ, subst)
		if !subTypeOf(args[i].Type, expected, subst) {
			return nil, false
		}
	}
	applied := make([]ExtType, len(rts))
	for i, rt := range rts {
		applied[i] = SubstituteExtType(rt, subst)
	}
	return applied, true
}

// subTypeOf reports whether a concrete argument type fits an expected
// parameter type. Ranks and element types must match exactly. A dimension
// constrains the argument only once it is fixed: dimensions still naming
// an unresolved variable accept any extent.
func subTypeOf(actual, expected Type, subst DimSubst) bool {
	if actual.ElemType() != expected.ElemType() || actual.Rank() != expected.Rank() {
		return false
	}
	expArr, ok := expected.(ArrayType)
	if !ok {
		return true
	}
	actArr := actual.(ArrayType)
	for i, d := range expArr.Dims {
		if SubExpEqual(d, actArr.Dims[i]) {
			continue
		}
		v, isVar := d.(Var)
		if isVar {
			if _, resolved := subst[v.I.Name]; !resolved {
				// Unresolved name: no constraint.
				continue
			}
		}
		return false
	}
	return true
}
