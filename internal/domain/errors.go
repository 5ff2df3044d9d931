package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAttributeNotFound is returned when a field forwarded to a remote object is
	// rejected there.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrEvidenceTypeMismatch is returned when the engine rejects an evidence value.
	ErrEvidenceTypeMismatch = errors.New("evidence type mismatch")

	// ErrNotFoundInOwner is returned when a parent or child name is absent from the
	// owning network's variables. References across networks are not resolved.
	ErrNotFoundInOwner = errors.New("not found in owning network")

	// ErrRemoteLookupFailure is returned when the naming service cannot resolve a
	// network name, or the lookup times out.
	ErrRemoteLookupFailure = errors.New("remote lookup failed")

	// ErrParseFailure is returned when the engine cannot parse a network description.
	ErrParseFailure = errors.New("network description parse failed")

	// ErrStaleReference is returned when a cached remote reference no longer answers.
	ErrStaleReference = errors.New("stale remote reference")

	// ErrReadOnlyField is returned when assigning a field the handle computes itself.
	ErrReadOnlyField = errors.New("read-only field")

	// ErrContextClosed is returned by operations on a context after Close.
	ErrContextClosed = errors.New("engine context closed")
)

// Engine error codes carried by RemoteError. The first block follows JSON-RPC.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603

	CodeDescriptionParse = -32010
	CodeEvidenceType     = -32011
	CodeUnknownNetwork   = -32012
	CodeStaleReference   = -32013
	CodeUnknownAttribute = -32014
)

// RemoteError is an error reported by the engine.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// Unwrap maps the engine code onto the shared taxonomy so callers can use errors.Is.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeMethodNotFound, CodeUnknownAttribute:
		return ErrAttributeNotFound
	case CodeDescriptionParse:
		return ErrParseFailure
	case CodeEvidenceType:
		return ErrEvidenceTypeMismatch
	case CodeUnknownNetwork:
		return ErrRemoteLookupFailure
	case CodeStaleReference:
		return ErrStaleReference
	}
	return nil
}
