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
	"sync"

	"github.com/tottoto/protox/ast"
)

// ErrorReporter is responsible for reporting the given error. If the reporter
// returns a non-nil error, parsing/linking will abort with that error. If the
// reporter returns nil, parsing will continue, allowing the parser to try to
// report as many syntax and/or link errors as it can find.
type ErrorReporter func(err ErrorWithPos) error

// WarningReporter is responsible for reporting the given warning. This is used
// for indicating non-error messages to the calling program for things that do
// not cause the parse to fail but are considered bad practice. Though they are
// just warnings, the details are supplied to the reporter via an error type.
type WarningReporter func(ErrorWithPos)

// Reporter is a type that handles reporting both errors and warnings.
type Reporter interface {
	// Error is called when the given error is encountered and needs to be
	// reported to the calling program. If this function returns non-nil
	// then the operation aborts immediately with the given error. If it
	// returns nil, the operation continues, reporting more errors as they
	// are encountered. If the reporter never returns non-nil then the
	// operation eventually fails with ErrInvalidSource.
	Error(ErrorWithPos) error
	// Warning is called when the given warning is encountered and needs to
	// be reported to the calling program. A warning never aborts the
	// operation (unless the reporter's implementation panics).
	Warning(ErrorWithPos)
}

// NewReporter creates a new reporter that invokes the given functions on
// error or warning.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithPos) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler is used by compilation operations for handling errors and warnings.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler creates a new Handler that reports errors and warnings using
// the given reporter. If rep is nil, a reporter that aborts on the first
// error and ignores warnings is used.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleErrorf handles an error with the given source position, creating the
// error using the given message format and arguments.
//
// If the handler has already aborted (by returning a non-nil error from a
// call to HandleError or HandleErrorf), that same error is returned and the
// given error is not reported.
func (h *Handler) HandleErrorf(pos ast.SourcePosInfo, format string, args ...interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	h.errsReported = true
	err := h.reporter.Error(Errorf(pos, format, args...))
	h.err = err
	return err
}

// HandleError handles the given error. If err is an ErrorWithPos, it is
// reported, and this returns the error returned by the reporter. If err is
// not an ErrorWithPos, the operation aborts immediately.
//
// If the handler has already aborted (by returning a non-nil error from a
// call to HandleError or HandleErrorf), that same error is returned and the
// given error is not reported.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	if ewp, ok := err.(ErrorWithPos); ok {
		h.errsReported = true
		err = h.reporter.Error(ewp)
	}
	h.err = err
	return err
}

// HandleWarning reports a warning to the handler's configured reporter.
// Unlike HandleError, this never aborts the operation: the reporter's
// Warning method has no return value to signal otherwise.
func (h *Handler) HandleWarning(err ErrorWithPos) {
	h.reporter.Warning(err)
}

// HandleWarningf is a convenience form of HandleWarning that builds the
// ErrorWithPos from a source position and a message format, the way
// HandleErrorf does for errors.
func (h *Handler) HandleWarningf(pos ast.SourcePosInfo, format string, args ...interface{}) {
	h.HandleWarning(Errorf(pos, format, args...))
}

// Error returns the handler's accumulated result. If any errors have been
// reported, this returns a non-nil error: either the value last returned by
// the reporter, or ErrInvalidSource if the reporter never returned one.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ReporterError returns the error returned by the handler's reporter. If the
// reporter has either not been invoked or has not returned a non-nil value,
// this returns nil.
func (h *Handler) ReporterError() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}
