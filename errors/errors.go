// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package errors defines the system catalog's error kind taxonomy and a
// small wrapping helper in the style of blobstore/util/errors' Info().
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a catalog error the way spec.md §7 enumerates them.
type Code int

const (
	Unknown Code = iota
	NotFound
	Corruption
	InvalidArgument
	RuntimeError
	TimedOut
	IllegalState
	Fatal
)

func (c Code) String() string {
	switch c {
	case NotFound:
		return "not found"
	case Corruption:
		return "corruption"
	case InvalidArgument:
		return "invalid argument"
	case RuntimeError:
		return "runtime error"
	case TimedOut:
		return "timed out"
	case IllegalState:
		return "illegal state"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a Code-tagged error. Catalog code should type-assert via Is or
// CodeOf rather than comparing messages.
type Error struct {
	code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %s", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Code() Code { return e.code }

// New creates a Code-tagged error with no wrapped cause.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, format string, args ...interface{}) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code and a context prefix, matching the teacher's
// errors.Info(err, prefix) wrapping idiom.
func Wrap(code Code, err error, prefix string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: prefix, err: err}
}

// CodeOf extracts the Code from err if it (or something it wraps) is a
// *Error; otherwise it reports Unknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return Unknown
}

// Is reports whether err is tagged with the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
