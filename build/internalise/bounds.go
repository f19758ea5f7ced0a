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
	"github.com/rivelang/rive/build/fmterr"
	"github.com/rivelang/rive/build/ir"
	"github.com/rivelang/rive/lang/ast"
)

// Certificate synthesis. Bounds checks on indexing obey the pass policy
// flag: they are only emitted when checking is enabled and the caller
// supplied no certificates of its own. Structural checks — reshape size
// preservation, zip/concat shape agreement, split size ordering — are
// emitted unconditionally: flattening arrays of tuples into parallel
// arrays is only sound if the per-component extents stay in lock-step.

var zero = ir.Constant{Value: ir.IntValue(0)}

// boundsChecks returns the certificates guarding an indexing operation:
// the given certificates when the caller supplied some, otherwise one
// synthesized certificate per indexed dimension asserting 0 <= i < d,
// otherwise none when checking is disabled.
func (s *scope) boundsChecks(src ast.Node, arr ir.Ident, idx []ir.SubExp, given ir.Certificates) (ir.Certificates, error) {
	if len(given) > 0 {
		return given, nil
	}
	if !s.pass.boundsCheck {
		return nil, nil
	}
	arrT, ok := arr.Typ.(ir.ArrayType)
	if !ok || len(idx) > len(arrT.Dims) {
		return nil, fmterr.Internalf(src, "cannot index %s with %d index(es)", arr.Typ.String(), len(idx))
	}
	var certs ir.Certificates
	for k, i := range idx {
		lower, err := s.bindSubExp("lower", ir.BinOp{Op: ir.Leq, X: zero, Y: i, T: ir.Bool})
		if err != nil {
			return nil, err
		}
		upper, err := s.bindSubExp("upper", ir.BinOp{Op: ir.Less, X: i, Y: arrT.Dims[k], T: ir.Bool})
		if err != nil {
			return nil, err
		}
		inBounds, err := s.bindSubExp("in_bounds", ir.BinOp{Op: ir.LogAnd, X: lower, Y: upper, T: ir.Bool})
		if err != nil {
			return nil, err
		}
		cert, err := s.bindCert(inBounds, src.Pos())
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// equalCert asserts that two dimensions agree. Emitted unconditionally.
func (s *scope) equalCert(src ast.Node, x, y ir.SubExp) (ir.Ident, error) {
	eq, err := s.bindSubExp("eq", ir.BinOp{Op: ir.Equal, X: x, Y: y, T: ir.Bool})
	if err != nil {
		return ir.Ident{}, err
	}
	return s.bindCert(eq, src.Pos())
}

// shapeCerts asserts pairwise agreement of the outer dimensions of a list
// of arrays, as required to keep flattened components in lock-step.
func (s *scope) shapeCerts(src ast.Node, arrays []ir.Ident) (ir.Certificates, error) {
	if len(arrays) < 2 {
		return nil, nil
	}
	first, err := ir.OuterDim(arrays[0].Typ)
	if err != nil {
		return nil, fmterr.Position(src, err)
	}
	var certs ir.Certificates
	for _, arr := range arrays[1:] {
		dim, err := ir.OuterDim(arr.Typ)
		if err != nil {
			return nil, fmterr.Position(src, err)
		}
		if ir.SubExpEqual(first, dim) {
			continue
		}
		cert, err := s.equalCert(src, first, dim)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// productCert asserts that the product of dims equals total: reshape must
// preserve the number of elements. Emitted unconditionally.
func (s *scope) productCert(src ast.Node, dims []ir.SubExp, total ir.SubExp) (ir.Ident, error) {
	product := ir.SubExp(ir.Constant{Value: ir.IntValue(1)})
	if len(dims) > 0 {
		product = dims[0]
		for _, d := range dims[1:] {
			next, err := s.bindSubExp("product", ir.BinOp{Op: ir.Times, X: product, Y: d, T: ir.Int})
			if err != nil {
				return ir.Ident{}, err
			}
			product = next
		}
	}
	return s.equalCert(src, product, total)
}

// splitCerts asserts that split sizes are non-negative and sum to the
// outer dimension of the split array. Emitted unconditionally.
func (s *scope) splitCerts(src ast.Node, sizes []ir.SubExp, outer ir.SubExp) (ir.Certificates, error) {
	var certs ir.Certificates
	sum := ir.SubExp(zero)
	for i, size := range sizes {
		nonNeg, err := s.bindSubExp("non_negative", ir.BinOp{Op: ir.Leq, X: zero, Y: size, T: ir.Bool})
		if err != nil {
			return nil, err
		}
		cert, err := s.bindCert(nonNeg, src.Pos())
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
		if i == 0 {
			sum = size
			continue
		}
		if sum, err = s.bindSubExp("sum", ir.BinOp{Op: ir.Plus, X: sum, Y: size, T: ir.Int}); err != nil {
			return nil, err
		}
	}
	cert, err := s.equalCert(src, sum, outer)
	if err != nil {
		return nil, err
	}
	return append(certs, cert), nil
}
