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

// Package ir defines the flat internal representation of Rive programs.
//
// The representation is the output of the internaliser: tuples are gone,
// every array dimension is a sub-expression, every compound expression is
// bound to a name before use, and operations whose safety depends on a
// runtime check carry certificates proving the check was emitted.
package ir

import "fmt"

type (
	// SubExp is a sub-expression value: a constant or a reference to a
	// name bound earlier. Compound expressions never appear as
	// sub-expressions; they are named by a binding first.
	SubExp interface {
		fmt.Stringer
		subExp()
		// Type returns the type of the value.
		Type() Type
	}

	// Constant is a scalar constant sub-expression.
	Constant struct {
		Value PrimValue
	}

	// Var is a reference to a bound identifier.
	Var struct {
		I Ident
	}
)

func (Constant) subExp() {}
func (Var) subExp()      {}

// Type returns the type of the constant.
func (s Constant) Type() Type { return s.Value.PrimType() }

// Type returns the type of the referenced identifier.
func (s Var) Type() Type { return s.I.Typ }

// String returns the constant in source form.
func (s Constant) String() string { return s.Value.String() }

// String returns the referenced name.
func (s Var) String() string { return s.I.Name.String() }

// SubExpEqual returns true if both sub-expressions are the same constant
// or reference the same name.
func SubExpEqual(x, y SubExp) bool {
	switch xt := x.(type) {
	case Constant:
		yt, ok := y.(Constant)
		return ok && PrimValueEqual(xt.Value, yt.Value)
	case Var:
		yt, ok := y.(Var)
		return ok && xt.I.Name == yt.I.Name
	}
	return false
}

// Ident is a typed internal identifier.
type Ident struct {
	Name VName
	Typ  Type
}

// String returns the identifier with its type.
func (id Ident) String() string {
	return fmt.Sprintf("%s:%s", id.Name.String(), id.Typ.String())
}

// Ref returns a sub-expression referencing the identifier.
func (id Ident) Ref() SubExp {
	return Var{I: id}
}

// Param is a function, lambda or loop parameter.
type Param = Ident

// Certificates is an ordered list of certificate identifiers attached to an
// operation whose safety depends on runtime checks. An empty list means no
// check is attached: either checking is disabled or the check was proven
// unnecessary. Certificate lists compose by concatenation in argument
// order.
type Certificates []Ident

// Diet describes what a function may do to an argument.
type Diet int

const (
	// Observe arguments are only read. Shape arguments are always
	// observed.
	Observe Diet = iota
	// Consume arguments may be overwritten by the callee.
	Consume
)

// String returns the diet name.
func (d Diet) String() string {
	if d == Consume {
		return "consume"
	}
	return "observe"
}

// Arg is one call argument with its diet.
type Arg struct {
	Value SubExp
	Diet  Diet
}

// BinOpKind enumerates the binary operators of the internal representation.
// There is no greater-than family: the internaliser normalises those onto
// Less and Leq with swapped, pre-bound operands.
type BinOpKind int

const (
	// Plus is addition.
	Plus BinOpKind = iota
	// Minus is subtraction.
	Minus
	// Times is multiplication.
	Times
	// Divide is division.
	Divide
	// Mod is the remainder.
	Mod
	// Pow is exponentiation.
	Pow
	// Equal is equality comparison.
	Equal
	// Less is strict less-than.
	Less
	// Leq is less-than-or-equal.
	Leq
	// LogAnd is boolean conjunction.
	LogAnd
	// LogOr is boolean disjunction.
	LogOr
)

var binOpNames = [...]string{
	Plus:   "+",
	Minus:  "-",
	Times:  "*",
	Divide: "/",
	Mod:    "%",
	Pow:    "**",
	Equal:  "==",
	Less:   "<",
	Leq:    "<=",
	LogAnd: "&&",
	LogOr:  "||",
}

// String returns the operator in source form.
func (op BinOpKind) String() string {
	if op < 0 || int(op) >= len(binOpNames) {
		return fmt.Sprintf("binop(%d)", int(op))
	}
	return binOpNames[op]
}

// Binding computes one expression and binds its results to the pattern
// identifiers. When the expression has existential result types, the
// pattern is prefixed with one integer identifier per existential index;
// those identifiers resolve the existential context for the rest of the
// body.
type Binding struct {
	Pat []Ident
	Exp Exp
}

// Result terminates a body: the values it produces plus the certificates
// the surrounding operation must observe for those values to be valid.
type Result struct {
	Certs  Certificates
	Values []SubExp
}

// Body is an ordered sequence of bindings terminated by a result. Every
// name referenced by a binding or by the result is bound by an earlier
// binding in the same body or in an enclosing scope.
type Body struct {
	Bindings []Binding
	Result   Result
}

// Lambda is an internalised anonymous function, used only as the operand
// of a loop operator. Parameter and return types are concrete.
type Lambda struct {
	Params []Param
	Body   *Body
	Ret    []Type
}

// FunDecl is an internal function declaration. Shape parameters come
// first; they are integers giving the dimensions used by the value
// parameters' types. Return types may carry an existential shape context,
// resolved by each caller right after the call.
type FunDecl struct {
	Name        string
	Ret         []ExtType
	ShapeParams []Param
	Params      []Param
	Body        *Body
}

// AllParams returns the shape parameters followed by the value parameters.
func (f *FunDecl) AllParams() []Param {
	all := make([]Param, 0, len(f.ShapeParams)+len(f.Params))
	all = append(all, f.ShapeParams...)
	all = append(all, f.Params...)
	return all
}

// Program is an ordered sequence of internal function declarations. Its
// names are unique per function body but not globally; the renamer makes
// them globally unique.
type Program struct {
	Funs []*FunDecl
}

// FunByName returns the declaration of the named function.
func (p *Program) FunByName(name string) *FunDecl {
	for _, f := range p.Funs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
