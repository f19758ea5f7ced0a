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

// Package internalise lowers a checked surface program into the flat
// internal representation: tuples are flattened into multiple values,
// array shapes become explicit integer sub-expressions, and the array
// combinators and loops of the surface language become the primitive
// operators of the internal one. Runtime checks are made explicit as
// assertions whose certificates the depending operations observe.
package internalise

import (
	"github.com/rivelang/rive/build/fmterr"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
	"golang.org/x/exp/maps"
)

type config struct {
	names       *ir.NameSource
	boundsCheck bool
}

// Option configures the lowering.
type Option func(*config)

// BoundsChecks controls whether indexing operations assert that their
// indices are in bounds. Structural checks, such as reshape and zip
// agreement, are emitted regardless.
func BoundsChecks(enabled bool) Option {
	return func(c *config) { c.boundsCheck = enabled }
}

// NameSource supplies the fresh-name counter to draw internal names
// from. The surface checker's counter is passed here so internal names
// never collide with surface ones.
func NameSource(names *ir.NameSource) Option {
	return func(c *config) { c.names = names }
}

// Program lowers a whole surface program. The first error aborts the
// lowering, except that all signature errors are reported together.
func Program(prog *ast.Program, opts ...Option) (*ir.Program, error) {
	cfg := &config{boundsCheck: true}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.names == nil {
		cfg.names = ir.NewNameSource(0)
	}
	ftable, err := buildFtable(cfg.names, prog)
	if err != nil {
		return nil, err
	}
	p := &pass{names: cfg.names, ftable: ftable, boundsCheck: cfg.boundsCheck}
	out := &ir.Program{Funs: make([]*ir.FunDecl, 0, len(prog.Funs))}
	for _, f := range prog.Funs {
		info, _ := ftable.Load(f.Name)
		decl, err := p.internaliseFun(info)
		if err != nil {
			return nil, fmterr.PrefixWith("in function %s: ", f.Name)(err)
		}
		out.Funs = append(out.Funs, decl)
	}
	return out, nil
}

func (p *pass) internaliseFun(info *funInfo) (*ir.FunDecl, error) {
	s := &scope{pass: p, substs: maps.Clone(info.paramSubsts), acc: &bodyAcc{}}
	body, err := s.collect(func(inner *scope) ([]ir.SubExp, error) {
		values, err := internaliseExp(inner, info.surface.Body)
		if err != nil {
			return nil, err
		}
		return values, checkFunResult(info, values)
	})
	if err != nil {
		return nil, err
	}
	return &ir.FunDecl{
		Name:        info.name,
		Ret:         info.ret,
		ShapeParams: info.shapeParams,
		Params:      info.params,
		Body:        body,
	}, nil
}

// checkFunResult verifies the body's values against the declared return
// types: element types and ranks must agree. Dimensions are not compared;
// the produced ones resolve the declared existential context, and free
// declared dimensions are a runtime matter.
func checkFunResult(info *funInfo, values []ir.SubExp) error {
	f := info.surface
	if len(values) != len(info.ret) {
		return errArity(f, "function result", len(values), len(info.ret))
	}
	for i, v := range values {
		want := info.ret[i]
		got := v.Type()
		if got.ElemType() != want.Elem || got.Rank() != len(want.Shape) {
			return fmterr.Errorf(f, "result %d has type %s, want %s", i, got.String(), want.String())
		}
	}
	return nil
}
