// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reporter

import (
	"errors"
	"fmt"

	"github.com/tottoto/protox/ast"
)

// ErrInvalidSource is a sentinel error that is returned by compilation and
// stand-alone compilation steps (such as parsing, linking) when one or more
// errors is reported but the configured ErrorReporter always returns nil.
var ErrInvalidSource = errors.New("parse failed: invalid proto source")

// ErrorWithPos is an error about a proto source file that adds information
// about the location in the file that caused the error.
type ErrorWithPos interface {
	error
	// GetPosition returns the source position that caused the underlying error.
	GetPosition() ast.SourcePosInfo
	// Unwrap returns the underlying error.
	Unwrap() error
}

// Error creates a new ErrorWithPos from the given error and source position.
func Error(pos ast.SourcePosInfo, err error) ErrorWithPos {
	return errorWithSourcePos{pos: pos, underlying: err}
}

// Errorf creates a new ErrorWithPos whose underlying error is created using the
// given message format and arguments (via fmt.Errorf).
func Errorf(pos ast.SourcePosInfo, format string, args ...interface{}) ErrorWithPos {
	return errorWithSourcePos{pos: pos, underlying: fmt.Errorf(format, args...)}
}

type errorWithSourcePos struct {
	underlying error
	pos        ast.SourcePosInfo
}

func (e errorWithSourcePos) Error() string {
	sourcePos := e.GetPosition()
	return fmt.Sprintf("%s: %v", sourcePos, e.underlying)
}

func (e errorWithSourcePos) GetPosition() ast.SourcePosInfo {
	return e.pos
}

func (e errorWithSourcePos) Unwrap() error {
	return e.underlying
}

var _ ErrorWithPos = errorWithSourcePos{}

// Custom error types that contain additional information for each error.

type AlreadyDefinedError struct {
	isPkg              bool
	PreviousDefinition ast.SourcePosInfo
}

func AlreadyDefined(previousDefinition ast.SourcePosInfo) AlreadyDefinedError {
	return AlreadyDefinedError{
		PreviousDefinition: previousDefinition,
	}
}

func AlreadyDefinedAsPkg(previousDefinition ast.SourcePosInfo) AlreadyDefinedError {
	return AlreadyDefinedError{
		isPkg:              true,
		PreviousDefinition: previousDefinition,
	}
}

func (e AlreadyDefinedError) Error() string {
	var asPkg string
	if e.isPkg {
		asPkg = " as a package"
	}
	return fmt.Sprintf("already defined%s at %s", asPkg, e.PreviousDefinition)
}

// NameLocation describes where a declaration that conflicts with another of
// the same name came from. A plain SourcePosInfo cannot always say this: the
// conflicting declaration may live in a file that was linked in a previous
// pass and is no longer backed by an AST, or it may have no location at all
// (a compiler-synthesized name, such as a proto3 synthetic oneof).
type NameLocation struct {
	pos      ast.SourcePos
	imported bool
	unknown  bool
}

// RootLocation describes a name declared in the file currently being
// checked, at pos.
func RootLocation(pos ast.SourcePos) NameLocation {
	return NameLocation{pos: pos}
}

// ImportLocation describes a name contributed by a file that was linked in
// an earlier pass; pos carries only that file's path, since its AST isn't in
// scope here.
func ImportLocation(pos ast.SourcePos) NameLocation {
	return NameLocation{pos: pos, imported: true}
}

// UnknownLocation describes a name with no source position at all, such as
// one the compiler synthesized rather than one a user wrote.
func UnknownLocation() NameLocation {
	return NameLocation{unknown: true}
}

// NewNameLocation classifies span automatically: a span with a real line and
// column is a RootLocation; a span that carries only a file name (as
// returned by ast.UnknownSpan for an already-linked import) is an
// ImportLocation; a span with no file name at all is an UnknownLocation.
func NewNameLocation(span ast.SourceSpan) NameLocation {
	pos := span.Start()
	switch {
	case pos.Line > 0 && pos.Col > 0:
		return RootLocation(pos)
	case pos.Filename != "":
		return ImportLocation(pos)
	default:
		return UnknownLocation()
	}
}

func (l NameLocation) String() string {
	switch {
	case l.unknown:
		return "<no source location>"
	case l.imported:
		return fmt.Sprintf("an already-compiled dependency (%s)", l.pos.Filename)
	default:
		return l.pos.String()
	}
}

// DuplicateNameError reports that Name was declared more than once. Unlike
// AlreadyDefinedError, which assumes the earlier declaration has a usable
// source position, this can represent a conflict between two declarations in
// different files — including one that was linked in an earlier pass and so
// has no AST here, or one with no source position at all.
type DuplicateNameError struct {
	Name          string
	First, Second NameLocation
}

// DuplicateName reports that name was declared at both first and second.
func DuplicateName(name string, first, second NameLocation) DuplicateNameError {
	return DuplicateNameError{Name: name, First: first, Second: second}
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("%q already defined at %s", e.Name, e.First)
}
