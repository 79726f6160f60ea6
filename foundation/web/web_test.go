package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/notary/foundation/web"
)

func Test_HandleAndRespond(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return err
		}

		resp := struct {
			Index   string `json:"index"`
			TraceID string `json:"trace_id"`
		}{
			Index:   web.Param(r, "index"),
			TraceID: v.TraceID,
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
	app.Handle(http.MethodGet, "v1", "/blocks/:index", h, mw("route"))

	r := httptest.NewRequest(http.MethodGet, "/v1/blocks/7", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Should receive a 200, got %d", w.Code)
	}

	var got struct {
		Index   string `json:"index"`
		TraceID string `json:"trace_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Should be able to decode the response: %s", err)
	}

	if got.Index != "7" || got.TraceID == "" {
		t.Fatalf("Should get the route parameter and a trace id, got %+v", got)
	}

	if strings.Join(order, ",") != "app,route" {
		t.Fatalf("Should run application middleware first, got %v", order)
	}
}

func Test_ShutdownError(t *testing.T) {
	shutdown := make(chan os.Signal, 1)
	app := web.NewApp(shutdown)

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	}
	app.Handle(http.MethodGet, "", "/fail", h)

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	select {
	case <-shutdown:
	default:
		t.Fatal("Should signal a shutdown")
	}
}

func Test_Decode(t *testing.T) {
	var v struct {
		Receipt string `json:"receipt"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receipt":"00ab"}`))
	if err := web.Decode(r, &v); err != nil || v.Receipt != "00ab" {
		t.Fatalf("Should decode the body, got %+v %v", v, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	if err := web.Decode(r, &v); err == nil {
		t.Fatal("Should reject unknown fields")
	}
}
