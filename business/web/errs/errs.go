// Package errs provides the error types returned to clients of the web api
// and the mapping of ledger errors onto them.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/notary"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/ardanlabs/notary/foundation/ledger/validator"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Index  *uint64           `json:"index,omitempty"`
	Reason string            `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context. The message of a trusted error is
// safe to hand back to the client.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// FromLedger classifies an error returned by the ledger packages. Expected
// errors come back wrapped as Trusted with the matching status; anything
// else is returned untouched and is reported as an internal error.
func FromLedger(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, pow.ErrInvalidDifficulty),
		errors.Is(err, chain.ErrInvalidPayload),
		errors.Is(err, digest.ErrUnknownAlgorithm):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, chain.ErrNotFound),
		errors.Is(err, notary.ErrReceiptNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, notary.ErrDocumentMismatch),
		errors.Is(err, chain.ErrGenesisExists):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, chain.ErrEmptyChain),
		errors.Is(err, pow.ErrPoWNotFound):
		return NewTrusted(err, http.StatusServiceUnavailable)

	case errors.Is(err, validator.ErrIntegrity):
		return NewTrusted(err, http.StatusUnprocessableEntity)
	}

	return err
}

// NewResponse builds the response body for a trusted error. Integrity errors
// carry the failing index and reason.
func NewResponse(err error) Response {
	resp := Response{
		Error: err.Error(),
	}

	if ie := validator.GetIntegrityError(err); ie != nil {
		index := ie.Index
		resp.Index = &index
		resp.Reason = string(ie.Reason)
	}

	return resp
}
