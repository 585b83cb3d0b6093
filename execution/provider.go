package execution

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kevinms/leakybucket-go"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/io/logs"
	prysmTime "github.com/prysmaticlabs/lumen/time"
	"github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxAttempts    = 3
	retryBaseDelay        = 100 * time.Millisecond
	retryMaxDelay         = 5 * time.Second
	throttlePollInterval  = 25 * time.Millisecond
)

// Provider supplies the untrusted raw material the client verifies before
// serving: account and storage proofs, contract code, and access lists. It
// also forwards signed transactions, which need no verification.
type Provider interface {
	// GetProof fetches the account proof for address at the given block,
	// plus storage proofs for the requested slots.
	GetProof(ctx context.Context, address common.Address, slots []common.Hash, blockNumber uint64) (*gethclient.AccountResult, error)
	// GetCode fetches the contract code of address at the given block.
	GetCode(ctx context.Context, address common.Address, blockNumber uint64) ([]byte, error)
	// CreateAccessList asks the provider which accounts and slots a call
	// would touch. The response guides prefetching only and is never
	// trusted.
	CreateAccessList(ctx context.Context, msg ethereum.CallMsg, blockNumber uint64) (gethtypes.AccessList, error)
	// ChainID reports the chain the provider serves.
	ChainID(ctx context.Context) (uint64, error)
	// SendRawTransaction forwards a signed transaction unmodified.
	SendRawTransaction(ctx context.Context, tx []byte) (common.Hash, error)
}

type providerConfig struct {
	jwtSecret      []byte
	rateLimit      float64
	requestTimeout time.Duration
	maxAttempts    int
}

// ProviderOption configures an RpcProvider.
type ProviderOption func(p *RpcProvider) error

// WithJWTSecret authenticates every request with a bearer token minted
// from the given secret, the way engine API endpoints expect.
func WithJWTSecret(secret []byte) ProviderOption {
	return func(p *RpcProvider) error {
		p.cfg.jwtSecret = secret
		return nil
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the cap.
func WithRateLimit(rps float64) ProviderOption {
	return func(p *RpcProvider) error {
		p.cfg.rateLimit = rps
		return nil
	}
}

// WithRequestTimeout bounds each request attempt.
func WithRequestTimeout(d time.Duration) ProviderOption {
	return func(p *RpcProvider) error {
		p.cfg.requestTimeout = d
		return nil
	}
}

// WithMaxAttempts sets how many times a transient failure is attempted.
func WithMaxAttempts(n int) ProviderOption {
	return func(p *RpcProvider) error {
		if n < 1 {
			return errors.New("max attempts must be at least 1")
		}
		p.cfg.maxAttempts = n
		return nil
	}
}

// RpcProvider fetches proof material over JSON-RPC from an untrusted
// execution endpoint. Transient transport failures are retried with
// exponential backoff; application-level errors are returned as is.
type RpcProvider struct {
	endpoint   string
	cfg        *providerConfig
	client     *rpc.Client
	eth        *ethclient.Client
	gethClient *gethclient.Client
	limiter    *leakybucket.LeakyBucket
}

// NewRpcProvider dials the execution endpoint and prepares the typed
// clients around the shared connection.
func NewRpcProvider(ctx context.Context, endpoint string, opts ...ProviderOption) (*RpcProvider, error) {
	p := &RpcProvider{
		endpoint: endpoint,
		cfg: &providerConfig{
			requestTimeout: defaultRequestTimeout,
			maxAttempts:    defaultMaxAttempts,
		},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial execution endpoint %s", logs.MaskCredentialsLogging(endpoint))
	}
	if len(p.cfg.jwtSecret) > 0 {
		token, err := p.mintToken()
		if err != nil {
			client.Close()
			return nil, err
		}
		client.SetHeader("Authorization", "Bearer "+token)
	}
	p.client = client
	p.eth = ethclient.NewClient(client)
	p.gethClient = gethclient.New(client)
	if p.cfg.rateLimit > 0 {
		capacity := int64(p.cfg.rateLimit * 2)
		if capacity < 1 {
			capacity = 1
		}
		p.limiter = leakybucket.NewLeakyBucket(p.cfg.rateLimit, capacity)
	}
	return p, nil
}

// Close tears down the underlying connection.
func (p *RpcProvider) Close() {
	p.client.Close()
}

// GetProof implements Provider.
func (p *RpcProvider) GetProof(ctx context.Context, address common.Address, slots []common.Hash, blockNumber uint64) (*gethclient.AccountResult, error) {
	keys := make([]string, len(slots))
	for i, s := range slots {
		keys[i] = s.Hex()
	}
	var result *gethclient.AccountResult
	err := p.do(ctx, "eth_getProof", func(ctx context.Context) error {
		res, err := p.gethClient.GetProof(ctx, address, keys, new(big.Int).SetUint64(blockNumber))
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// GetCode implements Provider.
func (p *RpcProvider) GetCode(ctx context.Context, address common.Address, blockNumber uint64) ([]byte, error) {
	var code []byte
	err := p.do(ctx, "eth_getCode", func(ctx context.Context) error {
		c, err := p.eth.CodeAt(ctx, address, new(big.Int).SetUint64(blockNumber))
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	return code, err
}

type accessListResult struct {
	AccessList *gethtypes.AccessList `json:"accessList"`
	Error      string                `json:"error,omitempty"`
	GasUsed    hexutil.Uint64        `json:"gasUsed"`
}

// CreateAccessList implements Provider. A response carrying a vm error is
// still returned, since the touched set is what prefetching is after.
func (p *RpcProvider) CreateAccessList(ctx context.Context, msg ethereum.CallMsg, blockNumber uint64) (gethtypes.AccessList, error) {
	var result accessListResult
	err := p.do(ctx, "eth_createAccessList", func(ctx context.Context) error {
		return p.client.CallContext(ctx, &result, "eth_createAccessList", toCallArg(msg), hexutil.Uint64(blockNumber))
	})
	if err != nil {
		return nil, err
	}
	if result.AccessList == nil {
		return nil, nil
	}
	return *result.AccessList, nil
}

// ChainID implements Provider.
func (p *RpcProvider) ChainID(ctx context.Context) (uint64, error) {
	var id *big.Int
	err := p.do(ctx, "eth_chainId", func(ctx context.Context) error {
		cid, err := p.eth.ChainID(ctx)
		if err != nil {
			return err
		}
		id = cid
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

// SendRawTransaction implements Provider.
func (p *RpcProvider) SendRawTransaction(ctx context.Context, tx []byte) (common.Hash, error) {
	var hash common.Hash
	err := p.do(ctx, "eth_sendRawTransaction", func(ctx context.Context) error {
		return p.client.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(tx))
	})
	return hash, err
}

func (p *RpcProvider) do(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	if err := p.throttle(ctx); err != nil {
		return err
	}
	start := prysmTime.Now()
	defer func() {
		providerRequestLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()
	var err error
	for attempt := 0; attempt < p.cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			providerRetries.WithLabelValues(method).Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}
		providerRequests.WithLabelValues(method).Inc()
		if len(p.cfg.jwtSecret) > 0 {
			token, terr := p.mintToken()
			if terr != nil {
				return terr
			}
			p.client.SetHeader("Authorization", "Bearer "+token)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.requestTimeout)
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if !isRetryable(err) {
			return err
		}
		log.WithError(err).WithFields(logrus.Fields{
			"method":  method,
			"attempt": attempt + 1,
		}).Debug("Retrying execution provider request")
	}
	return err
}

func (p *RpcProvider) throttle(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	for p.limiter.Add(1) == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(throttlePollInterval):
		}
	}
	return nil
}

func (p *RpcProvider) mintToken() (string, error) {
	claims := jwt.MapClaims{"iat": jwt.NewNumericDate(prysmTime.Now())}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "could not mint bearer token")
	}
	return token, nil
}

func backoffDelay(attempt int) time.Duration {
	d := retryBaseDelay << (attempt - 1)
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return d
}

// isRetryable tells transient transport failures apart from errors the
// endpoint answered with. Rate limiting and server-side failures retry,
// application-level JSON-RPC errors do not.
func isRetryable(err error) bool {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	return true
}

func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{
		"from": msg.From,
		"to":   msg.To,
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}
