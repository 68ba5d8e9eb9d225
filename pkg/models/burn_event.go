package models

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// BurnEvent represents a TokensBurned log observed on a source chain
type BurnEvent struct {
	SourceChainID int64          `json:"source_chain_id"`
	From          common.Address `json:"from"`
	Amount        *big.Int       `json:"amount"`
	BlockNumber   uint64         `json:"block_number"`
	LogIndex      uint           `json:"log_index"`
	TxHash        common.Hash    `json:"tx_hash"`
}

// Key returns the idempotency key of the event: chain, block, log index and sender
func (e BurnEvent) Key() string {
	return fmt.Sprintf("%d:%d:%d:%s", e.SourceChainID, e.BlockNumber, e.LogIndex, strings.ToLower(e.From.Hex()))
}

// FormattedAmount returns the amount in whole token units for logging
func (e BurnEvent) FormattedAmount(decimals int32) string {
	if e.Amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(e.Amount, -decimals).String()
}
