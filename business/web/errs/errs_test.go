package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/notary/business/web/errs"
	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/notary"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/ardanlabs/notary/foundation/ledger/validator"
)

func Test_FromLedger(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		status int
	}{
		{"difficulty", fmt.Errorf("append: %w", pow.ErrInvalidDifficulty), http.StatusBadRequest},
		{"payload", chain.ErrInvalidPayload, http.StatusBadRequest},
		{"block", chain.ErrNotFound, http.StatusNotFound},
		{"receipt", notary.ErrReceiptNotFound, http.StatusNotFound},
		{"mismatch", notary.ErrDocumentMismatch, http.StatusConflict},
		{"empty", chain.ErrEmptyChain, http.StatusServiceUnavailable},
		{"pow", pow.ErrPoWNotFound, http.StatusServiceUnavailable},
		{"integrity", &validator.IntegrityError{Index: 4, Reason: validator.LinkBroken}, http.StatusUnprocessableEntity},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			te := errs.GetTrusted(errs.FromLedger(tst.err))
			if te == nil {
				t.Fatalf("Should get a trusted error for %v", tst.err)
			}

			if te.Status != tst.status {
				t.Fatalf("Should get status %d, got %d", tst.status, te.Status)
			}

			if !errors.Is(te, tst.err) {
				t.Fatal("Should keep the original error in the chain")
			}
		})
	}

	plain := errors.New("disk full")
	if errs.IsTrusted(errs.FromLedger(plain)) {
		t.Fatal("Should leave unexpected errors untrusted")
	}
}

func Test_NewResponse(t *testing.T) {
	err := errs.FromLedger(fmt.Errorf("verify: %w", &validator.IntegrityError{Index: 2, Reason: validator.HashMismatch}))

	resp := errs.NewResponse(err)
	if resp.Index == nil || *resp.Index != 2 || resp.Reason != string(validator.HashMismatch) {
		t.Fatalf("Should carry the failing index and reason, got %+v", resp)
	}
}
