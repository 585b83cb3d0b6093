package rpc

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/execution"
)

// handlerFunc serves one JSON-RPC method over decoded positional params.
type handlerFunc func(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error)

// routes maps the served methods. Every read is answered from verified
// state; nothing is passed through to the untrusted provider besides raw
// transaction submission.
func (s *Service) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		"eth_chainId":             s.chainID,
		"eth_blockNumber":         s.blockNumber,
		"eth_getBalance":          s.getBalance,
		"eth_getTransactionCount": s.getTransactionCount,
		"eth_getCode":             s.getCode,
		"eth_getStorageAt":        s.getStorageAt,
		"eth_call":                s.call,
		"eth_estimateGas":         s.estimateGas,
		"eth_getBlockByNumber":    s.getBlockByNumber,
		"eth_getBlockByHash":      s.getBlockByHash,
		"eth_sendRawTransaction":  s.sendRawTransaction,
		"net_version":             s.netVersion,
		"web3_clientVersion":      s.clientVersion,
	}
}

// decodeParam unmarshals the positional argument at index i into out.
func decodeParam(params []jsoniter.RawMessage, i int, out interface{}) error {
	if i >= len(params) {
		return errInvalidParams("missing value for required argument %d", i)
	}
	if err := json.Unmarshal(params[i], out); err != nil {
		return errInvalidParams("invalid argument %d: %v", i, err)
	}
	return nil
}

// blockTagParam reads the block parameter at index i, defaulting to the
// latest tag when the argument is absent.
func blockTagParam(params []jsoniter.RawMessage, i int) (execution.BlockTag, error) {
	if i >= len(params) {
		return execution.Latest, nil
	}
	var raw string
	if err := json.Unmarshal(params[i], &raw); err != nil {
		return execution.BlockTag{}, errInvalidParams("invalid argument %d: block parameter must be a string", i)
	}
	return execution.ParseBlockTag(raw)
}

func (s *Service) chainID(_ context.Context, _ []jsoniter.RawMessage) (interface{}, error) {
	return hexutil.Uint64(s.cfg.client.ChainID()), nil
}

func (s *Service) blockNumber(_ context.Context, _ []jsoniter.RawMessage) (interface{}, error) {
	n, err := s.cfg.client.BlockNumber()
	if err != nil {
		return nil, err
	}
	return hexutil.Uint64(n), nil
}

func (s *Service) getBalance(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var address common.Address
	if err := decodeParam(params, 0, &address); err != nil {
		return nil, err
	}
	tag, err := blockTagParam(params, 1)
	if err != nil {
		return nil, err
	}
	balance, err := s.cfg.client.GetBalance(ctx, address, tag)
	if err != nil {
		return nil, err
	}
	return (*hexutil.Big)(balance.ToBig()), nil
}

func (s *Service) getTransactionCount(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var address common.Address
	if err := decodeParam(params, 0, &address); err != nil {
		return nil, err
	}
	tag, err := blockTagParam(params, 1)
	if err != nil {
		return nil, err
	}
	nonce, err := s.cfg.client.GetTransactionCount(ctx, address, tag)
	if err != nil {
		return nil, err
	}
	return hexutil.Uint64(nonce), nil
}

func (s *Service) getCode(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var address common.Address
	if err := decodeParam(params, 0, &address); err != nil {
		return nil, err
	}
	tag, err := blockTagParam(params, 1)
	if err != nil {
		return nil, err
	}
	code, err := s.cfg.client.GetCode(ctx, address, tag)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(code), nil
}

func (s *Service) getStorageAt(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var address common.Address
	if err := decodeParam(params, 0, &address); err != nil {
		return nil, err
	}
	var position string
	if err := decodeParam(params, 1, &position); err != nil {
		return nil, err
	}
	tag, err := blockTagParam(params, 2)
	if err != nil {
		return nil, err
	}
	value, err := s.cfg.client.GetStorageAt(ctx, address, common.HexToHash(position), tag)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Service) call(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var args callArgs
	if err := decodeParam(params, 0, &args); err != nil {
		return nil, err
	}
	tag, err := blockTagParam(params, 1)
	if err != nil {
		return nil, err
	}
	result, err := s.cfg.client.Call(ctx, args.toMsg(), tag)
	if err != nil {
		return nil, err
	}
	if len(result.Revert()) > 0 {
		return nil, newRevertError(result)
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return hexutil.Bytes(result.Return()), nil
}

// estimateGas runs the call on verified state. A reverting call surfaces
// the revert reason instead of a gas figure.
func (s *Service) estimateGas(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var args callArgs
	if err := decodeParam(params, 0, &args); err != nil {
		return nil, err
	}
	tag, err := blockTagParam(params, 1)
	if err != nil {
		return nil, err
	}
	result, err := s.cfg.client.Call(ctx, args.toMsg(), tag)
	if err != nil {
		return nil, err
	}
	if len(result.Revert()) > 0 {
		return nil, newRevertError(result)
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return hexutil.Uint64(result.UsedGas), nil
}

// getBlockByNumber serves blocks from verified payload headers. Blocks
// outside the verified window resolve to null the same way unknown
// blocks do on a full node.
func (s *Service) getBlockByNumber(_ context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	if len(params) < 1 {
		return nil, errInvalidParams("missing value for required argument 0")
	}
	tag, err := blockTagParam(params, 0)
	if err != nil {
		return nil, err
	}
	if err := rejectFullTransactions(params, 1); err != nil {
		return nil, err
	}
	header, err := s.cfg.client.GetBlockByNumber(tag)
	if errors.Is(err, execution.ErrBlockNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return marshalBlock(header), nil
}

func (s *Service) getBlockByHash(_ context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var hash common.Hash
	if err := decodeParam(params, 0, &hash); err != nil {
		return nil, err
	}
	if err := rejectFullTransactions(params, 1); err != nil {
		return nil, err
	}
	header, err := s.cfg.client.GetBlockByHash(hash)
	if errors.Is(err, execution.ErrBlockNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return marshalBlock(header), nil
}

func (s *Service) sendRawTransaction(ctx context.Context, params []jsoniter.RawMessage) (interface{}, error) {
	var tx hexutil.Bytes
	if err := decodeParam(params, 0, &tx); err != nil {
		return nil, err
	}
	hash, err := s.cfg.client.SendRawTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return hash, nil
}

func (s *Service) netVersion(_ context.Context, _ []jsoniter.RawMessage) (interface{}, error) {
	return strconv.FormatUint(s.cfg.client.ChainID(), 10), nil
}

func (s *Service) clientVersion(_ context.Context, _ []jsoniter.RawMessage) (interface{}, error) {
	return s.cfg.clientVersion, nil
}

// rejectFullTransactions refuses the full-transaction flag of the block
// getters. Verified payload headers carry the transactions root but not
// the bodies, so hydrated blocks cannot be served honestly.
func rejectFullTransactions(params []jsoniter.RawMessage, i int) error {
	if i >= len(params) {
		return nil
	}
	var fullTx bool
	if err := decodeParam(params, i, &fullTx); err != nil {
		return err
	}
	if fullTx {
		return errors.New("transaction bodies are not tracked, request the block without full transactions")
	}
	return nil
}

// callArgs is the argument object of eth_call and eth_estimateGas.
type callArgs struct {
	From                 *common.Address `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Data                 *hexutil.Bytes  `json:"data"`
	Input                *hexutil.Bytes  `json:"input"`
}

// data returns the calldata, preferring the newer input field when both
// are set.
func (a *callArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

// toMsg shapes the arguments into the message the execution client runs.
func (a *callArgs) toMsg() ethereum.CallMsg {
	msg := ethereum.CallMsg{
		To:   a.To,
		Data: a.data(),
	}
	if a.From != nil {
		msg.From = *a.From
	}
	if a.Gas != nil {
		msg.Gas = uint64(*a.Gas)
	}
	if a.GasPrice != nil {
		msg.GasPrice = (*big.Int)(a.GasPrice)
	}
	if a.MaxFeePerGas != nil {
		msg.GasFeeCap = (*big.Int)(a.MaxFeePerGas)
	}
	if a.MaxPriorityFeePerGas != nil {
		msg.GasTipCap = (*big.Int)(a.MaxPriorityFeePerGas)
	}
	if a.Value != nil {
		msg.Value = (*big.Int)(a.Value)
	}
	return msg
}

// marshalBlock renders a verified payload header in the JSON shape of an
// execution block. Post-merge blocks have no uncles and no proof-of-work
// fields, so those hold their empty values. Fields the payload header
// does not carry, like the total difficulty, are omitted rather than
// fabricated.
func marshalBlock(header *lctypes.ExecutionPayloadHeader) map[string]interface{} {
	baseFee := new(big.Int).SetBytes(bytesutil.ReverseByteOrder(header.BaseFeePerGas))
	fields := map[string]interface{}{
		"hash":             common.BytesToHash(header.BlockHash),
		"parentHash":       common.BytesToHash(header.ParentHash),
		"sha3Uncles":       gethtypes.EmptyUncleHash,
		"miner":            common.BytesToAddress(header.FeeRecipient),
		"stateRoot":        common.BytesToHash(header.StateRoot),
		"transactionsRoot": common.BytesToHash(header.TransactionsRoot),
		"receiptsRoot":     common.BytesToHash(header.ReceiptsRoot),
		"logsBloom":        hexutil.Bytes(header.LogsBloom),
		"difficulty":       (*hexutil.Big)(common.Big0),
		"number":           hexutil.Uint64(header.BlockNumber),
		"gasLimit":         hexutil.Uint64(header.GasLimit),
		"gasUsed":          hexutil.Uint64(header.GasUsed),
		"timestamp":        hexutil.Uint64(header.Timestamp),
		"extraData":        hexutil.Bytes(header.ExtraData),
		"mixHash":          common.BytesToHash(header.PrevRandao),
		"nonce":            gethtypes.BlockNonce{},
		"baseFeePerGas":    (*hexutil.Big)(baseFee),
		"uncles":           []common.Hash{},
		"transactions":     []common.Hash{},
	}
	if len(header.WithdrawalsRoot) > 0 {
		fields["withdrawalsRoot"] = common.BytesToHash(header.WithdrawalsRoot)
	}
	if header.BlobGasUsed != nil {
		fields["blobGasUsed"] = hexutil.Uint64(*header.BlobGasUsed)
	}
	if header.ExcessBlobGas != nil {
		fields["excessBlobGas"] = hexutil.Uint64(*header.ExcessBlobGas)
	}
	return fields
}
