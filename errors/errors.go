// Copyright 2026 Google LLC. All Rights Reserved.
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

// Package errors defines an error representation that associates an error
// message to an error code.
//
// It allows translation to transport specific errors (e.g., HTTP status codes)
// without information loss, while keeping the ledger independent of any
// particular transport.
//
// Errors created by this package are meant to be user-visible, therefore care
// must be taken to ensure that both messages and error codes are chosen
// according to the perspective of the caller.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the error code of a HashservError. Values match the gRPC codes.
type Code uint32

const (
	// OK is returned on success.
	OK Code = 0
	// Canceled indicates the operation was canceled, typically by the caller.
	Canceled Code = 1
	// Unknown error.
	Unknown Code = 2
	// InvalidArgument indicates the caller specified an invalid argument,
	// such as a malformed digest.
	InvalidArgument Code = 3
	// DeadlineExceeded means the operation expired before completion.
	DeadlineExceeded Code = 4
	// NotFound means some requested entity (a block, a digest) was not found.
	NotFound Code = 5
	// AlreadyExists means an attempt to create an entity failed because one
	// already exists.
	AlreadyExists Code = 6
	// FailedPrecondition indicates the system is not in a state required for
	// the operation's execution.
	FailedPrecondition Code = 9
	// Aborted indicates the operation was aborted, typically due to a
	// concurrency conflict. The caller may retry.
	Aborted Code = 10
	// Internal errors mean some invariant expected by the system has been
	// broken.
	Internal Code = 13
	// Unavailable indicates the service is currently unavailable.
	Unavailable Code = 14
	// DataLoss indicates unrecoverable data loss or corruption.
	DataLoss Code = 15
)

var codeNames = map[Code]string{
	OK:                 "OK",
	Canceled:           "Canceled",
	Unknown:            "Unknown",
	InvalidArgument:    "InvalidArgument",
	DeadlineExceeded:   "DeadlineExceeded",
	NotFound:           "NotFound",
	AlreadyExists:      "AlreadyExists",
	FailedPrecondition: "FailedPrecondition",
	Aborted:            "Aborted",
	Internal:           "Internal",
	Unavailable:        "Unavailable",
	DataLoss:           "DataLoss",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}

// ParseCode returns the Code whose String is name.
func ParseCode(name string) (Code, bool) {
	for c, n := range codeNames {
		if n == name {
			return c, true
		}
	}
	return Unknown, false
}

// HashservError associates an error message with a Code.
type HashservError interface {
	error
	Code() Code
}

type hashservError struct {
	code Code
	err  error
}

func (e *hashservError) Error() string {
	return e.err.Error()
}

func (e *hashservError) Code() Code {
	return e.code
}

func (e *hashservError) Unwrap() error {
	return e.err
}

// Errorf creates a HashservError from the specified code and message. The
// message is formatted with fmt.Errorf, so %w may be used to keep the cause.
func Errorf(code Code, format string, a ...interface{}) error {
	return &hashservError{code: code, err: fmt.Errorf(format, a...)}
}

// New creates a HashservError from the specified code and message.
func New(code Code, msg string) error {
	return &hashservError{code: code, err: errors.New(msg)}
}

// ErrorCode returns the code of the outermost HashservError in err's chain.
// It returns OK for nil and Unknown for errors without a code.
func ErrorCode(err error) Code {
	if err == nil {
		return OK
	}
	var herr HashservError
	if errors.As(err, &herr) {
		return herr.Code()
	}
	return Unknown
}

// HTTPStatus returns the HTTP status code that best represents code.
func HTTPStatus(code Code) int {
	switch code {
	case OK:
		return http.StatusOK
	case Canceled:
		return 499 // Client Closed Request, as used by nginx.
	case InvalidArgument:
		return http.StatusBadRequest
	case DeadlineExceeded:
		return http.StatusGatewayTimeout
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, Aborted:
		return http.StatusConflict
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus is the inverse of HTTPStatus, used by clients.
func FromHTTPStatus(status int) Code {
	switch status {
	case http.StatusOK:
		return OK
	case 499:
		return Canceled
	case http.StatusBadRequest:
		return InvalidArgument
	case http.StatusGatewayTimeout:
		return DeadlineExceeded
	case http.StatusNotFound:
		return NotFound
	case http.StatusConflict:
		return Aborted
	case http.StatusPreconditionFailed:
		return FailedPrecondition
	case http.StatusServiceUnavailable:
		return Unavailable
	}
	if status >= 500 {
		return Internal
	}
	return Unknown
}
