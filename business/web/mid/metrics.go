package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/ardanlabs/notary/foundation/web"
)

// counters contains the global program counters for the application.
var counters = struct {
	gr     *expvar.Int
	req    *expvar.Int
	err    *expvar.Int
	panics *expvar.Int
}{
	gr:     expvar.NewInt("goroutines"),
	req:    expvar.NewInt("requests"),
	err:    expvar.NewInt("errors"),
	panics: expvar.NewInt("panics"),
}

// Metrics updates program counters.
func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			counters.req.Add(1)

			// Update the count for the number of active goroutines every 100 requests.
			if counters.req.Value()%100 == 0 {
				counters.gr.Set(int64(runtime.NumGoroutine()))
			}

			if err != nil {
				counters.err.Add(1)
			}

			return err
		}

		return h
	}

	return m
}
