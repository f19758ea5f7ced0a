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
	"go.uber.org/multierr"
)

// The function table is built before any body is lowered: a call can only
// be lowered against the callee's already-flattened signature. Every entry
// records the internal signature — shape parameters, flattened value
// parameters, declared existential return types — and keeps the surface
// declaration for re-deriving parameter types.

type funInfo struct {
	name        string
	shapeParams []ir.Param
	params      []ir.Param
	ret         []ir.ExtType
	surface     *ast.FunDecl

	// paramSubsts maps each surface parameter name to the identifiers
	// it was flattened into; it seeds the substitution environment of
	// the function's body.
	paramSubsts map[string][]ir.Ident
	// paramOrder lists the surface parameter names in declaration
	// order.
	paramOrder []string
}

// allParams returns the shape parameters followed by the value parameters,
// matching the argument order of a call.
func (fi *funInfo) allParams() []ir.Param {
	all := make([]ir.Param, 0, len(fi.shapeParams)+len(fi.params))
	all = append(all, fi.shapeParams...)
	all = append(all, fi.params...)
	return all
}

// applyRetType instantiates the function's return types against concrete
// call arguments: shape arguments first, then value arguments. A false
// result means the arguments do not fit the signature.
func (fi *funInfo) applyRetType(args []ir.CallArg) ([]ir.ExtType, bool) {
	return ir.ApplyRetType(fi.ret, fi.allParams(), args)
}

// buildFtable internalises every function's signature. All broken
// signatures are reported together.
func buildFtable(names *ir.NameSource, prog *ast.Program) (*ordered.Map[string, *funInfo], error) {
	ftable := ordered.NewMap[string, *funInfo]()
	var errs error
	for _, f := range prog.Funs {
		if _, dup := ftable.Load(f.Name); dup {
			errs = multierr.Append(errs, fmterr.Errorf(f, "function %s declared more than once", f.Name))
			continue
		}
		info, err := buildFunInfo(names, f)
		if err != nil {
			errs = multierr.Append(errs, errors.WithMessagef(err, "in function %s", f.Name))
			continue
		}
		ftable.Store(f.Name, info)
	}
	if errs != nil {
		return nil, errs
	}
	return ftable, nil
}

func buildFunInfo(names *ir.NameSource, f *ast.FunDecl) (*funInfo, error) {
	info := &funInfo{
		name:        f.Name,
		surface:     f,
		paramSubsts: map[string][]ir.Ident{},
	}
	// Dimensions may name shape parameters or earlier integer value
	// parameters.
	dimEnv := map[string]ir.Ident{}
	paramDim := func(owner string) dimConv {
		return func(d ast.Dim) (ir.ExtDim, error) {
			switch dt := d.(type) {
			case ast.ConstDim:
				return ir.Free{D: ir.Constant{Value: ir.IntValue(dt.Size)}}, nil
			case ast.NamedDim:
				id, ok := dimEnv[dt.Name]
				if !ok {
					id = ir.Ident{Name: names.Fresh(dt.Name), Typ: ir.Int}
					dimEnv[dt.Name] = id
					info.shapeParams = append(info.shapeParams, id)
				}
				return ir.Free{D: id.Ref()}, nil
			case ast.AnyDim:
				id := ir.Ident{Name: names.Fresh(owner + "_size"), Typ: ir.Int}
				info.shapeParams = append(info.shapeParams, id)
				return ir.Free{D: id.Ref()}, nil
			}
			return nil, errors.Errorf("cannot internalise dimension %T", d)
		}
	}
	for _, p := range f.Params {
		leaves, err := flattenType(p.T, paramDim(p.Name))
		if err != nil {
			return nil, fmterr.Position(p, err)
		}
		types, err := concreteTypes(leaves)
		if err != nil {
			return nil, fmterr.Position(p, err)
		}
		ids := make([]ir.Ident, len(types))
		for i, t := range types {
			ids[i] = ir.Ident{Name: names.Fresh(p.Name), Typ: t}
		}
		info.params = append(info.params, ids...)
		info.paramSubsts[p.Name] = ids
		info.paramOrder = append(info.paramOrder, p.Name)
		if len(ids) == 1 && ids[0].Typ == ir.Int {
			// An integer parameter may appear as a dimension of a
			// later parameter or of the return type.
			if _, taken := dimEnv[p.Name]; !taken {
				dimEnv[p.Name] = ids[0]
			}
		}
	}
	ret, err := flattenType(f.Ret, extDimConv(func(name string) (ir.SubExp, bool) {
		id, ok := dimEnv[name]
		if !ok {
			return nil, false
		}
		return id.Ref(), true
	}))
	if err != nil {
		return nil, fmterr.Position(f, err)
	}
	info.ret = ret
	return info, nil
}

// builtin is an intrinsic scalar function with a statically known
// signature, callable without a table entry.
type builtin struct {
	params []ir.PrimType
	ret    ir.PrimType
}

// builtins is the fixed table of intrinsic scalar functions.
var builtins = map[string]builtin{
	"sqrt":  {params: []ir.PrimType{ir.Float}, ret: ir.Float},
	"exp":   {params: []ir.PrimType{ir.Float}, ret: ir.Float},
	"log":   {params: []ir.PrimType{ir.Float}, ret: ir.Float},
	"sin":   {params: []ir.PrimType{ir.Float}, ret: ir.Float},
	"cos":   {params: []ir.PrimType{ir.Float}, ret: ir.Float},
	"atan2": {params: []ir.PrimType{ir.Float, ir.Float}, ret: ir.Float},
	"toFloat": {
		params: []ir.PrimType{ir.Int},
		ret:    ir.Float,
	},
	"trunc": {params: []ir.PrimType{ir.Float}, ret: ir.Int},
}
