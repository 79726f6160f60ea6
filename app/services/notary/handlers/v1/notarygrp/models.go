package notarygrp

import (
	"github.com/ardanlabs/notary/foundation/ledger/database"
)

type notarizeRequest struct {
	Document   []byte `json:"document" validate:"required"`
	Difficulty uint   `json:"difficulty" validate:"omitempty,min=1,max=64"`
}

type notarizeResponse struct {
	Receipt string             `json:"receipt"`
	Block   database.BlockData `json:"block"`
}

type verifyRequest struct {
	Document []byte `json:"document" validate:"required"`
	Receipt  string `json:"receipt" validate:"required,hexadecimal"`
}

type verifyResponse struct {
	Verified bool               `json:"verified"`
	Block    database.BlockData `json:"block"`
}

type tipResponse struct {
	Length int                `json:"length"`
	Block  database.BlockData `json:"block"`
}

type validateResponse struct {
	Valid  bool    `json:"valid"`
	Length int     `json:"length"`
	Index  *uint64 `json:"index,omitempty"`
	Reason string  `json:"reason,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

func toBlockData(blocks []database.Block) []database.BlockData {
	data := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		data[i] = database.NewBlockData(block)
	}
	return data
}
