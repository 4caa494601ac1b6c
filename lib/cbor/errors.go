// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by this package wraps exactly
// one of these, so callers can branch with errors.Is without parsing
// messages.
var (
	// ErrIO reports a failure of the underlying reader or writer,
	// including short reads.
	ErrIO = errors.New("cbor: i/o failure")

	// ErrStructural reports malformed input: reserved additional-info
	// codes, recursion-limit breaches, mismatched indefinite-length
	// chunks and unsupported simple values.
	ErrStructural = errors.New("cbor: structural failure")

	// ErrConversion reports a Value whose major type or magnitude does
	// not fit the requested native type, or a Value that cannot be
	// encoded.
	ErrConversion = errors.New("cbor: conversion failure")

	// ErrKey reports a Value that is not usable as a map key.
	ErrKey = errors.New("cbor: key failure")
)

// Error is the typed error returned by the codec. Kind is one of the
// package sentinels; Err, when set, is the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "cbor: " + e.Message + ": " + e.Err.Error()
	}
	return "cbor: " + e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func structuralf(format string, args ...any) error {
	return &Error{Kind: ErrStructural, Message: fmt.Sprintf(format, args...)}
}

func conversionf(format string, args ...any) error {
	return &Error{Kind: ErrConversion, Message: fmt.Sprintf(format, args...)}
}

func keyf(format string, args ...any) error {
	return &Error{Kind: ErrKey, Message: fmt.Sprintf(format, args...)}
}

func ioError(operation string, err error) error {
	return &Error{Kind: ErrIO, Message: operation, Err: err}
}
