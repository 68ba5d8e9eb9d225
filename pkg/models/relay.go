package models

import (
	"github.com/ethereum/go-ethereum/common"
)

// ChainRoute is the destination a burn on SourceChainID is minted on
type ChainRoute struct {
	SourceChainID       int64
	DestinationChainID  int64
	DestinationContract common.Address
}

// RelayIntent is the payload handed to the sponsor relay for one burn event
type RelayIntent struct {
	DestinationChainID  int64
	DestinationContract common.Address
	CallData            []byte
	EventKey            string
}

// RelayOutcome is the terminal result of submitting one RelayIntent
type RelayOutcome struct {
	Success      bool
	TaskID       string
	ErrorMessage string
	Attempts     int
}

// RunResult is returned to the host once per invocation
// CanExec is always false: the relayer never asks the host to execute a transaction itself
type RunResult struct {
	CanExec bool   `json:"canExec"`
	Message string `json:"message"`
}
