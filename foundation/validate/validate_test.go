package validate_test

import (
	"testing"

	"github.com/ardanlabs/notary/foundation/validate"
)

type verifyRequest struct {
	Document string `json:"document" validate:"required,base64"`
	Receipt  string `json:"receipt" validate:"required,hexadecimal"`
}

func Test_Check(t *testing.T) {
	ok := verifyRequest{Document: "aGVsbG8=", Receipt: "00ff"}
	if err := validate.Check(ok); err != nil {
		t.Fatalf("Should accept a valid request: %s", err)
	}

	err := validate.Check(verifyRequest{Document: "aGVsbG8="})
	if !validate.IsFieldErrors(err) {
		t.Fatalf("Should get field errors, got %v", err)
	}

	fields := validate.GetFieldErrors(err).Fields()
	if _, exists := fields["receipt"]; !exists {
		t.Fatalf("Should name the receipt field by its json tag, got %v", fields)
	}

	if _, exists := fields["document"]; exists {
		t.Fatalf("Should not report the valid document field, got %v", fields)
	}
}
