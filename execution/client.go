package execution

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	gethparams "github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
)

// Client serves execution-layer reads from verified state only. Account
// fields, storage, code, and call results all trace back to a state root
// the consensus side verified; the untrusted provider merely supplies
// proof material. Reverts and out-of-gas surface inside call results,
// while errors mean a request could not be completed verifiably.
type Client struct {
	provider Provider
	state    *State
	headers  *Headers
	chainID  uint64
	rules    *gethparams.ChainConfig
}

// NewClient builds a client over the provider and the verified header
// store. The provider must serve the configured chain: a mismatch is
// refused outright rather than discovered proof by proof.
func NewClient(ctx context.Context, provider Provider, headers *Headers, chainID uint64) (*Client, error) {
	got, err := provider.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not query provider chain id")
	}
	if got != chainID {
		return nil, errors.Errorf("provider serves chain %d, client is configured for chain %d", got, chainID)
	}
	rules, err := chainRules(chainID)
	if err != nil {
		return nil, err
	}
	state, err := NewState(provider, defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		provider: provider,
		state:    state,
		headers:  headers,
		chainID:  chainID,
		rules:    rules,
	}, nil
}

// ChainID returns the chain the client serves.
func (c *Client) ChainID() uint64 {
	return c.chainID
}

// BlockNumber returns the number of the latest verified block.
func (c *Client) BlockNumber() (uint64, error) {
	header, err := c.headers.Resolve(Latest)
	if err != nil {
		return 0, err
	}
	return header.BlockNumber, nil
}

// GetBlockByNumber returns the verified header the tag resolves to.
func (c *Client) GetBlockByNumber(tag BlockTag) (*lctypes.ExecutionPayloadHeader, error) {
	return c.headers.Resolve(tag)
}

// GetBlockByHash returns the verified header with the given block hash.
func (c *Client) GetBlockByHash(hash common.Hash) (*lctypes.ExecutionPayloadHeader, error) {
	return c.headers.ByHash(hash)
}

// GetBalance returns the verified balance of address at the given block.
func (c *Client) GetBalance(ctx context.Context, address common.Address, tag BlockTag) (*uint256.Int, error) {
	header, err := c.headers.Resolve(tag)
	if err != nil {
		return nil, err
	}
	account, err := c.state.Account(ctx, common.BytesToHash(header.StateRoot), header.BlockNumber, address)
	if err != nil {
		return nil, err
	}
	return account.Balance.Clone(), nil
}

// GetTransactionCount returns the verified nonce of address at the given
// block.
func (c *Client) GetTransactionCount(ctx context.Context, address common.Address, tag BlockTag) (uint64, error) {
	header, err := c.headers.Resolve(tag)
	if err != nil {
		return 0, err
	}
	account, err := c.state.Account(ctx, common.BytesToHash(header.StateRoot), header.BlockNumber, address)
	if err != nil {
		return 0, err
	}
	return account.Nonce, nil
}

// GetStorageAt returns the verified value of slot at address.
func (c *Client) GetStorageAt(ctx context.Context, address common.Address, slot common.Hash, tag BlockTag) (common.Hash, error) {
	header, err := c.headers.Resolve(tag)
	if err != nil {
		return common.Hash{}, err
	}
	return c.state.Storage(ctx, common.BytesToHash(header.StateRoot), header.BlockNumber, address, slot)
}

// GetCode returns the verified bytecode of address at the given block.
func (c *Client) GetCode(ctx context.Context, address common.Address, tag BlockTag) ([]byte, error) {
	header, err := c.headers.Resolve(tag)
	if err != nil {
		return nil, err
	}
	account, err := c.state.Account(ctx, common.BytesToHash(header.StateRoot), header.BlockNumber, address)
	if err != nil {
		return nil, err
	}
	if !account.HasCode() {
		return nil, nil
	}
	code, err := c.state.Code(ctx, header.BlockNumber, address, account.CodeHash)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(code))
	copy(out, code)
	return out, nil
}

// Call executes the message against verified state at the given block.
// The embedded EVM reads exclusively through a view bound to the block's
// state root, so a result is returned only when every byte it depends on
// was verified. Reverts and out-of-gas are part of the result, not errors.
func (c *Client) Call(ctx context.Context, msg ethereum.CallMsg, tag BlockTag) (*core.ExecutionResult, error) {
	header, err := c.headers.Resolve(tag)
	if err != nil {
		return nil, err
	}
	root := common.BytesToHash(header.StateRoot)
	coinbase := common.BytesToAddress(header.FeeRecipient)
	c.state.Prefetch(ctx, root, header.BlockNumber, msg, coinbase)

	view := NewVerifiedStateView(ctx, c.state, root, header.BlockNumber)
	msgObj := toMessage(msg, header)
	evm := vm.NewEVM(newBlockContext(header, c.headers), core.NewEVMTxContext(msgObj), view, c.rules, vm.Config{NoBaseFee: true})
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			evm.Cancel()
		case <-done:
		}
	}()

	gp := new(core.GasPool).AddGas(msgObj.Gas())
	result, err := core.ApplyMessage(evm, msgObj, gp)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, errors.Wrap(err, "call rejected")
	}
	if verr := view.Error(); verr != nil {
		return nil, verr
	}
	return result, nil
}

// EstimateGas runs the call against verified state at the given tag and
// returns the gas it consumed. A reverting call is reported as an error,
// the way a failing estimate should be.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg, tag BlockTag) (uint64, error) {
	result, err := c.Call(ctx, msg, tag)
	if err != nil {
		return 0, err
	}
	if result.Err != nil {
		return 0, result.Err
	}
	return result.UsedGas, nil
}

// SendRawTransaction forwards a signed transaction to the provider
// unmodified. Nothing about it needs verification.
func (c *Client) SendRawTransaction(ctx context.Context, tx []byte) (common.Hash, error) {
	return c.provider.SendRawTransaction(ctx, tx)
}

// toMessage shapes a call request into the fake message the EVM consumes.
// Unset gas defaults to the block gas limit and unset price fields to
// zero, so plain reads cost callers nothing.
func toMessage(msg ethereum.CallMsg, header *lctypes.ExecutionPayloadHeader) gethtypes.Message {
	gas := msg.Gas
	if gas == 0 {
		gas = header.GasLimit
	}
	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	gasPrice := msg.GasPrice
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	gasFeeCap := msg.GasFeeCap
	if gasFeeCap == nil {
		gasFeeCap = new(big.Int).Set(gasPrice)
	}
	gasTipCap := msg.GasTipCap
	if gasTipCap == nil {
		gasTipCap = new(big.Int).Set(gasPrice)
	}
	return gethtypes.NewMessage(msg.From, msg.To, 0, value, gas, gasPrice, gasFeeCap, gasTipCap, msg.Data, msg.AccessList, true)
}
