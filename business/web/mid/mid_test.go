package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/notary/business/web/errs"
	"github.com/ardanlabs/notary/business/web/mid"
	"github.com/ardanlabs/notary/foundation/ledger/notary"
	"github.com/ardanlabs/notary/foundation/validate"
	"github.com/ardanlabs/notary/foundation/web"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Errors(t *testing.T) {
	type table struct {
		name    string
		handler web.Handler
		status  int
		message string
	}

	tt := []table{
		{
			name: "trusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.FromLedger(notary.ErrReceiptNotFound)
			},
			status:  http.StatusNotFound,
			message: notary.ErrReceiptNotFound.Error(),
		},
		{
			name: "fields",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				var req struct {
					Receipt string `json:"receipt" validate:"required"`
				}
				return validate.Check(req)
			},
			status:  http.StatusBadRequest,
			message: "data validation error",
		},
		{
			name: "untrusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errors.New("disk on fire")
			},
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
		{
			name: "panic",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			},
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
	}

	t.Log("Given the need to render handler errors.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen the handler returns a %s error.", testID, tst.name)
				{
					core, logs := observer.New(zap.ErrorLevel)
					log := zap.New(core).Sugar()

					app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())
					app.Handle(http.MethodGet, "v1", "/test", tst.handler)

					w := httptest.NewRecorder()
					app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive status %d, got %d.", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive status %d.", success, testID, tst.status)

					var resp errs.Response
					if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to decode the response: %v", failed, testID, err)
					}

					if resp.Error != tst.message {
						t.Fatalf("\t%s\tTest %d:\tShould get message %q, got %q.", failed, testID, tst.message, resp.Error)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected message.", success, testID)

					if n := logs.FilterMessage("ERROR").Len(); n != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould log the error once, got %d entries.", failed, testID, n)
					}
					t.Logf("\t%s\tTest %d:\tShould log the error once.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Cors(t *testing.T) {
	app := web.NewApp(make(chan os.Signal, 1), mid.Cors("*"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
	app.Handle(http.MethodOptions, "", "/*", h)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/v1/notarize", nil))

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Should set the allowed origin, got %q", got)
	}
}
