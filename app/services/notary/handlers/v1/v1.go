// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/notary/app/services/notary/handlers/v1/notarygrp"
	"github.com/ardanlabs/notary/foundation/events"
	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/notary"
	"github.com/ardanlabs/notary/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	Chain  *chain.Chain
	Notary *notary.Notary
	Evts   *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	ngh := notarygrp.Handlers{
		Log:    cfg.Log,
		Chain:  cfg.Chain,
		Notary: cfg.Notary,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/notarize", ngh.Notarize)
	app.Handle(http.MethodPost, version, "/verify", ngh.Verify)
	app.Handle(http.MethodGet, version, "/blocks", ngh.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/:index", ngh.BlockByIndex)
	app.Handle(http.MethodGet, version, "/tip", ngh.Tip)
	app.Handle(http.MethodGet, version, "/validate", ngh.Validate)
	app.Handle(http.MethodGet, version, "/events", ngh.Events)
}
