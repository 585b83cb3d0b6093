package rpc

import (
	"bytes"
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/execution"
	mockExecution "github.com/prysmaticlabs/lumen/execution/testing"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
	"github.com/prysmaticlabs/lumen/testing/util"
)

var (
	holderAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	reverterAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	absentAddr   = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	slotZero  = common.Hash{}
	slotValue = common.HexToHash("0x2a")
)

var (
	// PUSH1 0, SLOAD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	storageReaderCode = []byte{0x60, 0x00, 0x54, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
	// The ABI encoding of Error("oops").
	revertPayload = hexutil.MustDecode("0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000004" +
		"6f6f707300000000000000000000000000000000000000000000000000000000")
	// CODECOPY the appended revert payload into memory, then REVERT
	// with it.
	reverterCode = append([]byte{0x60, 0x64, 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, 0x64, 0x60, 0x00, 0xfd}, revertPayload...)
)

func blockHashFor(number uint64) common.Hash {
	return crypto.Keccak256Hash(bytesutil.Uint64ToBytesLittleEndian(number))
}

func makePayloadHeader(number uint64, stateRoot common.Hash) *lctypes.ExecutionPayloadHeader {
	baseFee := make([]byte, 32)
	baseFee[0] = 7
	return &lctypes.ExecutionPayloadHeader{
		ParentHash:       blockHashFor(number - 1).Bytes(),
		FeeRecipient:     bytesutil.PadTo([]byte{0xfe, 0xe1}, 20),
		StateRoot:        stateRoot.Bytes(),
		ReceiptsRoot:     make([]byte, 32),
		LogsBloom:        make([]byte, 256),
		PrevRandao:       bytesutil.PadTo([]byte{0x01}, 32),
		BlockNumber:      number,
		GasLimit:         30_000_000,
		Timestamp:        1_700_000_000 + number*12,
		BaseFeePerGas:    baseFee,
		BlockHash:        blockHashFor(number).Bytes(),
		TransactionsRoot: make([]byte, 32),
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *mockExecution.Provider) {
	fixture := util.NewStateFixture(t,
		&util.TestAccount{Address: holderAddr, Nonce: 3, Balance: big.NewInt(1000)},
		&util.TestAccount{
			Address: contractAddr,
			Nonce:   1,
			Code:    storageReaderCode,
			Storage: map[common.Hash]common.Hash{slotZero: slotValue},
		},
		&util.TestAccount{Address: reverterAddr, Nonce: 1, Code: reverterCode},
	)
	provider := &mockExecution.Provider{Fixture: fixture}
	headers := execution.NewHeaders(true, time.Minute)
	head := makePayloadHeader(12, fixture.Root)
	headers.Advance(head, head)

	client, err := execution.NewClient(context.Background(), provider, headers, 1)
	require.NoError(t, err)
	svc, err := NewService(context.Background(), append([]Option{
		WithExecutionClient(client),
		WithHTTPAddr("127.0.0.1:0"),
		WithClientVersion("lumen/test"),
	}, opts...)...)
	require.NoError(t, err)
	return svc, provider
}

// rpcCall posts one JSON-RPC request to the service handler and decodes
// the response.
func rpcCall(t *testing.T, s *Service, method string, params ...interface{}) *jsonrpcMessage {
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(&jsonrpcMessage{
		Version: jsonrpcVersion,
		ID:      jsoniter.RawMessage("1"),
		Method:  method,
		Params:  raw,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := &jsonrpcMessage{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	return resp
}

func requireResult(t *testing.T, resp *jsonrpcMessage) interface{} {
	if resp.Error != nil {
		t.Fatalf("unexpected error response: code %d message %q", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result
}

func requireRPCError(t *testing.T, resp *jsonrpcMessage, code int, contains string) *jsonError {
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	if !strings.Contains(resp.Error.Message, contains) {
		t.Fatalf("error message %q does not contain %q", resp.Error.Message, contains)
	}
	return resp.Error
}

func TestService_ChainID(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, "0x1", requireResult(t, rpcCall(t, svc, "eth_chainId")))
}

func TestService_NetVersion(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, "1", requireResult(t, rpcCall(t, svc, "net_version")))
}

func TestService_ClientVersion(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, "lumen/test", requireResult(t, rpcCall(t, svc, "web3_clientVersion")))
}

func TestService_BlockNumber(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, "0xc", requireResult(t, rpcCall(t, svc, "eth_blockNumber")))
}

func TestService_BlockNumberNotSynced(t *testing.T) {
	fixture := util.NewStateFixture(t)
	provider := &mockExecution.Provider{Fixture: fixture}
	client, err := execution.NewClient(context.Background(), provider, execution.NewHeaders(true, time.Minute), 1)
	require.NoError(t, err)
	svc, err := NewService(context.Background(), WithExecutionClient(client))
	require.NoError(t, err)

	requireRPCError(t, rpcCall(t, svc, "eth_blockNumber"), serverErrorCode, "no verified execution head")
}

func TestService_GetBalance(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getBalance", holderAddr, "latest")
	assert.Equal(t, "0x3e8", requireResult(t, resp))
}

func TestService_GetBalanceUnsupportedTag(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getBalance", holderAddr, "earliest")
	requireRPCError(t, resp, serverErrorCode, "cannot be served")
}

func TestService_GetTransactionCount(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getTransactionCount", holderAddr, "latest")
	assert.Equal(t, "0x3", requireResult(t, resp))
}

func TestService_GetCode(t *testing.T) {
	svc, _ := newTestService(t)

	resp := rpcCall(t, svc, "eth_getCode", contractAddr, "latest")
	assert.Equal(t, hexutil.Encode(storageReaderCode), requireResult(t, resp))

	resp = rpcCall(t, svc, "eth_getCode", holderAddr, "latest")
	assert.Equal(t, "0x", requireResult(t, resp))
}

func TestService_GetStorageAt(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getStorageAt", contractAddr, "0x0", "latest")
	assert.Equal(t, slotValue.Hex(), requireResult(t, resp))
}

func TestService_Call(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_call", map[string]interface{}{
		"from": holderAddr,
		"to":   contractAddr,
	}, "latest")
	assert.Equal(t, hexutil.Encode(slotValue.Bytes()), requireResult(t, resp))
}

func TestService_CallRevertCarriesReason(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_call", map[string]interface{}{
		"from": holderAddr,
		"to":   reverterAddr,
	}, "latest")
	rpcErr := requireRPCError(t, resp, revertErrorCode, "execution reverted: oops")
	assert.Equal(t, hexutil.Encode(revertPayload), rpcErr.Data)
}

func TestService_EstimateGas(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_estimateGas", map[string]interface{}{
		"from":  holderAddr,
		"to":    absentAddr,
		"value": "0x1",
	}, "latest")
	assert.Equal(t, "0x5208", requireResult(t, resp))
}

func TestService_EstimateGasRevertIsError(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_estimateGas", map[string]interface{}{
		"from": holderAddr,
		"to":   reverterAddr,
	})
	requireRPCError(t, resp, revertErrorCode, "execution reverted: oops")
}

func TestService_GetBlockByNumber(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getBlockByNumber", "latest", false)
	block, ok := requireResult(t, resp).(map[string]interface{})
	require.Equal(t, true, ok)

	assert.Equal(t, "0xc", block["number"])
	assert.Equal(t, blockHashFor(12).Hex(), block["hash"])
	assert.Equal(t, blockHashFor(11).Hex(), block["parentHash"])
	assert.Equal(t, hexutil.Encode(bytesutil.PadTo([]byte{0xfe, 0xe1}, 20)), block["miner"])
	assert.Equal(t, "0x7", block["baseFeePerGas"])
	assert.Equal(t, "0x0", block["difficulty"])
	assert.Equal(t, "0x0000000000000000", block["nonce"])
	assert.Equal(t, gethtypes.EmptyUncleHash.Hex(), block["sha3Uncles"])
	assert.DeepEqual(t, []interface{}{}, block["transactions"])
	_, hasWithdrawals := block["withdrawalsRoot"]
	assert.Equal(t, false, hasWithdrawals)
}

func TestService_GetBlockByNumberOutsideWindowIsNull(t *testing.T) {
	svc, _ := newTestService(t)

	resp := rpcCall(t, svc, "eth_getBlockByNumber", "0xc", false)
	block, ok := requireResult(t, resp).(map[string]interface{})
	require.Equal(t, true, ok)
	assert.Equal(t, "0xc", block["number"])

	resp = rpcCall(t, svc, "eth_getBlockByNumber", "0x63", false)
	require.Equal(t, nil, requireResult(t, resp))
}

func TestService_GetBlockByNumberRequiresBlockArgument(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getBlockByNumber")
	requireRPCError(t, resp, invalidParamsCode, "missing value for required argument 0")
}

func TestService_GetBlockByHash(t *testing.T) {
	svc, _ := newTestService(t)

	resp := rpcCall(t, svc, "eth_getBlockByHash", blockHashFor(12), false)
	block, ok := requireResult(t, resp).(map[string]interface{})
	require.Equal(t, true, ok)
	assert.Equal(t, "0xc", block["number"])

	resp = rpcCall(t, svc, "eth_getBlockByHash", common.Hash{0xde}, false)
	require.Equal(t, nil, requireResult(t, resp))
}

func TestService_GetBlockFullTransactionsRejected(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getBlockByNumber", "latest", true)
	requireRPCError(t, resp, serverErrorCode, "transaction bodies are not tracked")
}

func TestService_SendRawTransaction(t *testing.T) {
	svc, provider := newTestService(t)
	tx := hexutil.MustDecode("0xdeadbeef")

	resp := rpcCall(t, svc, "eth_sendRawTransaction", "0xdeadbeef")
	assert.Equal(t, crypto.Keccak256Hash(tx).Hex(), requireResult(t, resp))

	sent := provider.SentTransactions()
	require.Equal(t, 1, len(sent))
	assert.DeepEqual(t, tx, sent[0])
}

func TestService_MissingRequiredArgument(t *testing.T) {
	svc, _ := newTestService(t)
	resp := rpcCall(t, svc, "eth_getBalance")
	requireRPCError(t, resp, invalidParamsCode, "missing value for required argument 0")
}
