package execution

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	gethparams "github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
)

// chainRules maps a chain id onto the fork schedule the embedded EVM
// follows.
func chainRules(chainID uint64) (*gethparams.ChainConfig, error) {
	switch chainID {
	case gethparams.MainnetChainConfig.ChainID.Uint64():
		return gethparams.MainnetChainConfig, nil
	case gethparams.SepoliaChainConfig.ChainID.Uint64():
		return gethparams.SepoliaChainConfig, nil
	case gethparams.GoerliChainConfig.ChainID.Uint64():
		return gethparams.GoerliChainConfig, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedNetwork, "chain id %d", chainID)
	}
}

// newBlockContext shapes a verified payload header into the block
// environment the EVM observes. Proof-of-stake rules apply: difficulty is
// zero and the payload's prevrandao feeds the RANDOM opcode. BLOCKHASH
// answers from the verified header window.
func newBlockContext(header *lctypes.ExecutionPayloadHeader, headers *Headers) vm.BlockContext {
	random := common.BytesToHash(header.PrevRandao)
	return vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     headers.HashByNumber,
		Coinbase:    common.BytesToAddress(header.FeeRecipient),
		BlockNumber: new(big.Int).SetUint64(header.BlockNumber),
		Time:        new(big.Int).SetUint64(header.Timestamp),
		Difficulty:  new(big.Int),
		BaseFee:     baseFeeFromHeader(header),
		GasLimit:    header.GasLimit,
		Random:      &random,
	}
}

// baseFeeFromHeader decodes the base fee, which the payload header
// commits to in little-endian order.
func baseFeeFromHeader(header *lctypes.ExecutionPayloadHeader) *big.Int {
	return new(big.Int).SetBytes(bytesutil.ReverseByteOrder(header.BaseFeePerGas))
}
