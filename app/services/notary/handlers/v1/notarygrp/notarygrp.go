// Package notarygrp maintains the group of handlers for notarizing documents
// and inspecting the ledger.
package notarygrp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/notary/business/web/errs"
	"github.com/ardanlabs/notary/foundation/events"
	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/notary"
	"github.com/ardanlabs/notary/foundation/ledger/validator"
	"github.com/ardanlabs/notary/foundation/validate"
	"github.com/ardanlabs/notary/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of notary endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Chain  *chain.Chain
	Notary *notary.Notary
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Notarize anchors the document in the ledger and returns the receipt.
func (h Handlers) Notarize(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req notarizeRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	difficulty := req.Difficulty
	if difficulty == 0 {
		difficulty = h.Notary.Difficulty()
	}

	block, err := h.Notary.NotarizeBlock(ctx, req.Document, difficulty)
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Log.Infow("notarize", "traceid", v.TraceID, "blk", block.Index, "digest", block.PayloadDigest, "difficulty", block.Difficulty)

	resp := notarizeResponse{
		Receipt: block.Hash,
		Block:   database.NewBlockData(block),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Verify checks the document against the receipt it was notarized under.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req verifyRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	block, err := h.Notary.Verify(ctx, req.Document, req.Receipt)
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := verifyResponse{
		Verified: true,
		Block:    database.NewBlockData(block),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlockData(h.Chain.Blocks()), http.StatusOK)
}

// BlockByIndex returns the block at the index in the path.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("invalid block index"), http.StatusBadRequest)
	}

	block, err := h.Chain.BlockByIndex(index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// Tip returns the latest block and the length of the chain.
func (h Handlers) Tip(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.Chain.Tip()
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := tipResponse{
		Length: h.Chain.Length(),
		Block:  database.NewBlockData(block),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate walks the entire chain and reports the first corrupted block.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validateResponse{
		Valid:  true,
		Length: h.Chain.Length(),
	}

	if err := h.Notary.Validate(); err != nil {
		ie := validator.GetIntegrityError(err)
		if ie == nil {
			return err
		}

		index := ie.Index
		resp.Valid = false
		resp.Index = &index
		resp.Reason = string(ie.Reason)
		resp.Detail = ie.Detail
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide ledger events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The response has been hijacked so the logger middleware needs
	// to be told what happened.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscribed", "subscribers", h.Evts.Subscribers())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}
