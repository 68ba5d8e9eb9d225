package contracts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// BridgeTokenABI is the ABI fragment of the bridge token used by the relayer
const BridgeTokenABI = `[
	{
		"anonymous": false,
		"inputs": [
			{
				"indexed": true,
				"internalType": "address",
				"name": "from",
				"type": "address"
			},
			{
				"indexed": false,
				"internalType": "uint256",
				"name": "amount",
				"type": "uint256"
			}
		],
		"name": "TokensBurned",
		"type": "event"
	},
	{
		"inputs": [
			{
				"internalType": "address",
				"name": "to",
				"type": "address"
			},
			{
				"internalType": "uint256",
				"name": "amount",
				"type": "uint256"
			}
		],
		"name": "mintViaDedicatedAddress",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const (
	// TokensBurnedSignature is the canonical signature of the burn event
	TokensBurnedSignature = "TokensBurned(address,uint256)"

	// MintSignature is the canonical signature of the destination mint function
	MintSignature = "mintViaDedicatedAddress(address,uint256)"

	wordSize = 32
)

var (
	// TokensBurnedTopic is topic0 of every TokensBurned log
	TokensBurnedTopic = crypto.Keccak256Hash([]byte(TokensBurnedSignature))

	// MintSelector is the 4-byte function selector of mintViaDedicatedAddress
	MintSelector = crypto.Keccak256([]byte(MintSignature))[:4]
)

var (
	// ErrTopicMismatch is returned when a log is not a TokensBurned event
	ErrTopicMismatch = errors.New("log topic does not match TokensBurned")

	// ErrMalformedLog is returned when a TokensBurned log has the wrong shape
	ErrMalformedLog = errors.New("malformed TokensBurned log")

	// ErrInvalidAmount is returned when an amount can't be encoded as uint256
	ErrInvalidAmount = errors.New("amount is not a valid uint256")
)

// EncodeMint builds the calldata of mintViaDedicatedAddress(recipient, amount)
// The layout is selector || address left-padded to 32 bytes || amount as 32-byte big endian
func EncodeMint(recipient common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return nil, ErrInvalidAmount
	}

	data := make([]byte, 0, len(MintSelector)+2*wordSize)
	data = append(data, MintSelector...)
	data = append(data, common.LeftPadBytes(recipient.Bytes(), wordSize)...)
	data = append(data, math.U256Bytes(new(big.Int).Set(amount))...)
	return data, nil
}

// DecodeTokensBurned extracts the sender and amount of a TokensBurned log
func DecodeTokensBurned(log types.Log) (common.Address, *big.Int, error) {
	if len(log.Topics) == 0 || log.Topics[0] != TokensBurnedTopic {
		return common.Address{}, nil, ErrTopicMismatch
	}
	if len(log.Topics) != 2 {
		return common.Address{}, nil, fmt.Errorf("%w: expected 2 topics, got %d", ErrMalformedLog, len(log.Topics))
	}
	if len(log.Data) != wordSize {
		return common.Address{}, nil, fmt.Errorf("%w: expected %d data bytes, got %d", ErrMalformedLog, wordSize, len(log.Data))
	}

	// indexed address occupies the low 20 bytes of the topic, the rest must be zero
	topic := log.Topics[1].Bytes()
	for _, b := range topic[:wordSize-common.AddressLength] {
		if b != 0 {
			return common.Address{}, nil, fmt.Errorf("%w: sender topic is not an address", ErrMalformedLog)
		}
	}

	from := common.BytesToAddress(topic)
	amount := new(big.Int).SetBytes(log.Data)
	return from, amount, nil
}
