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

// Package fmterr formats compiler errors given a position in Rive source.
package fmterr

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rivelang/rive/lang/ast"
)

type (
	// ErrorWithPos is an error attached to a position in Rive code.
	ErrorWithPos interface {
		error
		Src() ast.Node
		Err() error
	}

	errorWithPos struct {
		src ast.Node
		err error
	}
)

// Position adds source position information to an error.
func Position(src ast.Node, err error) ErrorWithPos {
	return errorWithPos{src: src, err: err}
}

// Errorf returns a formatted compiler error for the user.
func Errorf(src ast.Node, format string, a ...any) error {
	return Position(src, errors.Errorf(format, a...))
}

// Internal marks an error as internal, potentially adding additional information.
func Internal(err error) error {
	return fmt.Errorf("rive internal error. This is a bug in the compiler. Please report it. Error:\n%+v", err)
}

// Internalf returns a formatted internal compiler error.
func Internalf(src ast.Node, format string, a ...any) error {
	return Internal(Errorf(src, format, a...))
}

// PrefixWith returns a function to prefix errors with a formatted string.
func PrefixWith(s string, o ...any) func(err error) error {
	return func(err error) error {
		return fmt.Errorf("%s%w", fmt.Sprintf(s, o...), err)
	}
}

// Error returns a string description of the error.
func (err errorWithPos) Error() string {
	if err.src == nil {
		return err.err.Error()
	}
	return err.src.Pos().String() + ": " + err.err.Error()
}

// Unwrap the error.
func (err errorWithPos) Unwrap() error {
	return err.err
}

// Src returns the surface node the error is attached to.
func (err errorWithPos) Src() ast.Node {
	return err.src
}

// Err returns the underlying error.
func (err errorWithPos) Err() error {
	return err.err
}
