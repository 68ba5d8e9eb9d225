package models

import (
	"github.com/ethereum/go-ethereum/core/types"
)

// UserArgs holds the per-invocation chain pair configuration supplied by the host
type UserArgs struct {
	SourceRPCURL          string `json:"sourceRpcUrl"`
	DestRPCURL            string `json:"destRpcUrl"`
	SourceContractAddress string `json:"sourceContractAddress"`
	DestContractAddress   string `json:"destContractAddress"`
	SourceChainID         int64  `json:"sourceChainId"`
	DestChainID           int64  `json:"destChainId"`
	DedicatedAddress      string `json:"dedicatedAddress,omitempty"`
}

// Secrets holds credentials supplied by the host
type Secrets struct {
	GelatoAPIKey     string `json:"GELATO_API_KEY"`
	DedicatedAddress string `json:"DEDICATED_ADDRESS,omitempty"`
}

// GelatoArgs holds host-provided execution context
type GelatoArgs struct {
	ChainID int64 `json:"chainId"`
}

// Invocation is the complete input of one relayer run
// When Log is set the run is in push mode, otherwise it polls both directions
type Invocation struct {
	UserArgs   UserArgs    `json:"userArgs"`
	Secrets    Secrets     `json:"secrets"`
	Log        *types.Log  `json:"log,omitempty"`
	GelatoArgs *GelatoArgs `json:"gelatoArgs,omitempty"`
}

// IsPush returns true when the invocation carries a pushed log
func (i Invocation) IsPush() bool {
	return i.Log != nil
}

// DedicatedAddress returns the minting address from secrets, else from user args
func (i Invocation) DedicatedAddress() string {
	if i.Secrets.DedicatedAddress != "" {
		return i.Secrets.DedicatedAddress
	}
	return i.UserArgs.DedicatedAddress
}
