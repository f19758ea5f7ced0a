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

// Package ast defines the type-checked surface representation of Rive
// programs. It is the output of the parser and checker and the input of the
// internaliser: every expression carries its type, every variable is scope
// resolved, but tuples are still first class and array dimensions may still
// be implicit.
package ast

import "fmt"

// Pos is a position in a surface source file.
type Pos struct {
	Line, Col int
}

// String returns the position in the usual line:column form.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node is an element of the surface tree attached to a source position.
type Node interface {
	Pos() Pos
}

// BinOpKind enumerates binary operators.
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
	// Greater is strict greater-than.
	Greater
	// Geq is greater-than-or-equal.
	Geq
	// LogAnd is boolean conjunction.
	LogAnd
	// LogOr is boolean disjunction.
	LogOr
)

var binOpNames = [...]string{
	Plus:    "+",
	Minus:   "-",
	Times:   "*",
	Divide:  "/",
	Mod:     "%",
	Pow:     "**",
	Equal:   "==",
	Less:    "<",
	Leq:     "<=",
	Greater: ">",
	Geq:     ">=",
	LogAnd:  "&&",
	LogOr:   "||",
}

// String returns the operator as written in source.
func (op BinOpKind) String() string {
	if op < 0 || int(op) >= len(binOpNames) {
		return fmt.Sprintf("binop(%d)", int(op))
	}
	return binOpNames[op]
}

// UnOpKind enumerates unary operators.
type UnOpKind int

const (
	// Not is boolean negation.
	Not UnOpKind = iota
	// Negate is arithmetic negation.
	Negate
)

// String returns the operator as written in source.
func (op UnOpKind) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}

type (
	// Exp is a surface expression. The set of variants is closed: the
	// internaliser dispatches over it exhaustively.
	Exp interface {
		Node
		exp()
	}

	// Literal is a constant expression.
	Literal struct {
		Value Value
		P     Pos
	}

	// Var is a reference to a bound variable.
	Var struct {
		Name string
		T    Type
		P    Pos
	}

	// TupLit builds a tuple from its component expressions.
	TupLit struct {
		Elems []Exp
		P     Pos
	}

	// ArrayLit builds an array from its element expressions. ElemType
	// is the declared element type, needed when Elems is empty.
	ArrayLit struct {
		Elems    []Exp
		ElemType Type
		P        Pos
	}

	// UnOp applies a unary operator.
	UnOp struct {
		Op UnOpKind
		X  Exp
		P  Pos
	}

	// BinOp applies a binary operator. T is the checked result type.
	BinOp struct {
		Op   BinOpKind
		X, Y Exp
		T    Type
		P    Pos
	}

	// If is a conditional expression; both branches have type T.
	If struct {
		Cond       Exp
		Then, Else Exp
		T          Type
		P          Pos
	}

	// Apply calls a named function.
	Apply struct {
		Name string
		Args []Exp
		T    Type
		P    Pos
	}

	// LetPat binds the (possibly tuple-valued) result of E to Pat in
	// Body.
	LetPat struct {
		Pat  Pattern
		E    Exp
		Body Exp
		P    Pos
	}

	// Index reads one element or slice from an array variable.
	// Dropping len(Idx) dimensions from the variable's type gives the
	// result type.
	Index struct {
		Array string
		Idx   []Exp
		T     Type
		P     Pos
	}

	// Iota builds the array [0, 1, ..., n-1].
	Iota struct {
		N Exp
		P Pos
	}

	// Size returns the extent of dimension Dim of an array.
	Size struct {
		Dim   int
		Array Exp
		P     Pos
	}

	// Replicate builds an array with N copies of V.
	Replicate struct {
		N, V Exp
		P    Pos
	}

	// Reshape reinterprets an array under a new shape of the same
	// total size.
	Reshape struct {
		Shape []Exp
		Array Exp
		P     Pos
	}

	// Rearrange permutes the dimensions of an array. Perm must be a
	// permutation of the array's rank.
	Rearrange struct {
		Perm  []int
		Array Exp
		P     Pos
	}

	// Split splits an array at index N into a pair of arrays.
	Split struct {
		N     Exp
		Array Exp
		P     Pos
	}

	// Concat joins two arrays along their outer dimension.
	Concat struct {
		X, Y Exp
		P    Pos
	}

	// Zip turns n arrays of equal outer extent into one array of
	// n-tuples.
	Zip struct {
		Arrays []Exp
		P      Pos
	}

	// Unzip turns an array of tuples into a tuple of arrays.
	Unzip struct {
		Array Exp
		P     Pos
	}

	// Copy makes a deep copy of a value, severing aliasing.
	Copy struct {
		X Exp
		P Pos
	}

	// Map applies Fun to every element of Arr.
	Map struct {
		Fun *Lambda
		Arr Exp
		P   Pos
	}

	// Reduce folds Arr with the associative operator Fun starting
	// from Neutral.
	Reduce struct {
		Fun     *Lambda
		Neutral Exp
		Arr     Exp
		P       Pos
	}

	// Scan computes all prefix reductions of Arr.
	Scan struct {
		Fun     *Lambda
		Neutral Exp
		Arr     Exp
		P       Pos
	}

	// Filter keeps the elements of Arr satisfying Fun.
	Filter struct {
		Fun *Lambda
		Arr Exp
		P   Pos
	}

	// Partition splits Arr into len(Funs)+1 arrays: the elements
	// satisfying the first predicate, then those satisfying the
	// second among the rest, and so on, with a final class for
	// elements satisfying none.
	Partition struct {
		Funs []*Lambda
		Arr  Exp
		P    Pos
	}

	// Redomap is a fused reduction of a mapped array: MapFun produces
	// per-element values that RedFun folds into the accumulator.
	Redomap struct {
		RedFun  *Lambda
		MapFun  *Lambda
		Neutral Exp
		Arr     Exp
		P       Pos
	}

	// Stream processes Arr in chunks: Fun receives the chunk size,
	// the chunk start offset, and the chunk itself, and produces a
	// partial result array; the results are concatenated.
	Stream struct {
		Fun *Lambda
		Arr Exp
		P   Pos
	}

	// ConcatMap maps Fun over Arr and concatenates the per-element
	// result arrays.
	ConcatMap struct {
		Fun *Lambda
		Arr Exp
		P   Pos
	}

	// DoLoop is a sequential loop. Pat is bound to Init for the first
	// iteration and to the result of LoopBody for the following ones;
	// once Form decides termination, Pat is bound to the final value
	// inside Body.
	DoLoop struct {
		Pat      Pattern
		Init     Exp
		Form     LoopForm
		LoopBody Exp
		Body     Exp
		P        Pos
	}
)

func (*Literal) exp()   {}
func (*Var) exp()       {}
func (*TupLit) exp()    {}
func (*ArrayLit) exp()  {}
func (*UnOp) exp()      {}
func (*BinOp) exp()     {}
func (*If) exp()        {}
func (*Apply) exp()     {}
func (*LetPat) exp()    {}
func (*Index) exp()     {}
func (*Iota) exp()      {}
func (*Size) exp()      {}
func (*Replicate) exp() {}
func (*Reshape) exp()   {}
func (*Rearrange) exp() {}
func (*Split) exp()     {}
func (*Concat) exp()    {}
func (*Zip) exp()       {}
func (*Unzip) exp()     {}
func (*Copy) exp()      {}
func (*Map) exp()       {}
func (*Reduce) exp()    {}
func (*Scan) exp()      {}
func (*Filter) exp()    {}
func (*Partition) exp() {}
func (*Redomap) exp()   {}
func (*Stream) exp()    {}
func (*ConcatMap) exp() {}
func (*DoLoop) exp()    {}

// Pos returns the source position of the expression.
func (e *Literal) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Var) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *TupLit) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *ArrayLit) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *UnOp) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *BinOp) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *If) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Apply) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *LetPat) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Index) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Iota) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Size) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Replicate) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Reshape) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Rearrange) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Split) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Concat) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Zip) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Unzip) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Copy) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Map) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Reduce) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Scan) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Filter) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Partition) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Redomap) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *Stream) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *ConcatMap) Pos() Pos { return e.P }

// Pos returns the source position of the expression.
func (e *DoLoop) Pos() Pos { return e.P }

type (
	// LoopForm decides how a DoLoop terminates.
	LoopForm interface {
		loopForm()
	}

	// ForLoop iterates IVar from 0 below Bound.
	ForLoop struct {
		IVar  string
		Bound Exp
	}

	// WhileLoop iterates as long as Cond holds. Cond may reference the
	// loop's merge pattern.
	WhileLoop struct {
		Cond Exp
	}
)

func (*ForLoop) loopForm()   {}
func (*WhileLoop) loopForm() {}

type (
	// Pattern destructures a (possibly tuple-valued) expression.
	Pattern interface {
		Node
		pattern()
	}

	// PatIdent binds one name.
	PatIdent struct {
		Name string
		T    Type
		P    Pos
	}

	// PatWildcard discards one value.
	PatWildcard struct {
		T Type
		P Pos
	}

	// PatTuple destructures a tuple, one sub-pattern per component.
	PatTuple struct {
		Elems []Pattern
		P     Pos
	}
)

func (*PatIdent) pattern()    {}
func (*PatWildcard) pattern() {}
func (*PatTuple) pattern()    {}

// Pos returns the source position of the pattern.
func (p *PatIdent) Pos() Pos { return p.P }

// Pos returns the source position of the pattern.
func (p *PatWildcard) Pos() Pos { return p.P }

// Pos returns the source position of the pattern.
func (p *PatTuple) Pos() Pos { return p.P }

// Param is a declared function or lambda parameter.
type Param struct {
	Name string
	T    Type
	P    Pos
}

// Pos returns the source position of the parameter.
func (p *Param) Pos() Pos { return p.P }

// Lambda is an anonymous function passed to an array combinator.
type Lambda struct {
	Params []*Param
	Body   Exp
	Ret    Type
	P      Pos
}

// Pos returns the source position of the lambda.
func (l *Lambda) Pos() Pos { return l.P }

// FunDecl is a top-level function declaration.
type FunDecl struct {
	Name   string
	Ret    Type
	Params []*Param
	Body   Exp
	P      Pos
}

// Pos returns the source position of the declaration.
func (f *FunDecl) Pos() Pos { return f.P }

// Program is an ordered list of function declarations.
type Program struct {
	Funs []*FunDecl
}
