// Package testing provides a fixture backed execution provider for tests.
package testing

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/prysmaticlabs/lumen/testing/util"
)

// Provider serves proofs and code straight from a state fixture and
// counts every fetch, so tests can pin down exactly how often the network
// would have been hit. The exported fields configure behavior; mutate
// them only before handing the provider out.
type Provider struct {
	// Fixture is the state the provider proves against.
	Fixture *util.StateFixture
	// Chain is the chain id reported to the client. Zero means mainnet.
	Chain uint64
	// Delay stalls every proof and code fetch, so tests can overlap
	// concurrent readers deliberately.
	Delay time.Duration
	// ProofErr, when set, fails every proof fetch.
	ProofErr error
	// CodeOverride substitutes the code served for an address without
	// touching the fixture, letting tests serve bytecode that does not
	// match the verified hash.
	CodeOverride map[common.Address][]byte
	// MutateProof, when set, edits each proof response before it is
	// returned, after it was built honestly from the fixture.
	MutateProof func(res *gethclient.AccountResult)
	// AccessList is handed back verbatim from CreateAccessList.
	AccessList gethtypes.AccessList
	// AccessListErr, when set, fails CreateAccessList.
	AccessListErr error

	mu              sync.Mutex
	proofCalls      map[common.Address]int
	totalProofCalls int
	codeCalls       int
	accessListCalls int
	sentTxs         [][]byte
}

// GetProof --
func (p *Provider) GetProof(ctx context.Context, address common.Address, slots []common.Hash, _ uint64) (*gethclient.AccountResult, error) {
	p.mu.Lock()
	if p.proofCalls == nil {
		p.proofCalls = make(map[common.Address]int)
	}
	p.proofCalls[address]++
	p.totalProofCalls++
	p.mu.Unlock()
	if err := p.stall(ctx); err != nil {
		return nil, err
	}
	if p.ProofErr != nil {
		return nil, p.ProofErr
	}
	res := &gethclient.AccountResult{
		Address:      address,
		AccountProof: encodeNodes(p.Fixture.AccountProof(address)),
		Balance:      new(big.Int),
		CodeHash:     crypto.Keccak256Hash(nil),
		StorageHash:  p.Fixture.StorageRoot(address),
	}
	account := p.Fixture.Account(address)
	if account != nil {
		if account.Balance != nil {
			res.Balance = new(big.Int).Set(account.Balance)
		}
		res.CodeHash = crypto.Keccak256Hash(account.Code)
		res.Nonce = account.Nonce
	}
	for _, slot := range slots {
		value := new(big.Int)
		if account != nil {
			value.SetBytes(account.Storage[slot].Bytes())
		}
		res.StorageProof = append(res.StorageProof, gethclient.StorageResult{
			Key:   slot.Hex(),
			Value: value,
			Proof: encodeNodes(p.Fixture.StorageProof(address, slot)),
		})
	}
	if p.MutateProof != nil {
		p.MutateProof(res)
	}
	return res, nil
}

// GetCode --
func (p *Provider) GetCode(ctx context.Context, address common.Address, _ uint64) ([]byte, error) {
	p.mu.Lock()
	p.codeCalls++
	p.mu.Unlock()
	if err := p.stall(ctx); err != nil {
		return nil, err
	}
	if code, ok := p.CodeOverride[address]; ok {
		return code, nil
	}
	if account := p.Fixture.Account(address); account != nil {
		return account.Code, nil
	}
	return nil, nil
}

// CreateAccessList --
func (p *Provider) CreateAccessList(_ context.Context, _ ethereum.CallMsg, _ uint64) (gethtypes.AccessList, error) {
	p.mu.Lock()
	p.accessListCalls++
	p.mu.Unlock()
	if p.AccessListErr != nil {
		return nil, p.AccessListErr
	}
	return p.AccessList, nil
}

// ChainID --
func (p *Provider) ChainID(_ context.Context) (uint64, error) {
	if p.Chain == 0 {
		return 1, nil
	}
	return p.Chain, nil
}

// SendRawTransaction --
func (p *Provider) SendRawTransaction(_ context.Context, tx []byte) (common.Hash, error) {
	p.mu.Lock()
	p.sentTxs = append(p.sentTxs, tx)
	p.mu.Unlock()
	return crypto.Keccak256Hash(tx), nil
}

// ProofCalls reports how many proof fetches the address received.
func (p *Provider) ProofCalls(address common.Address) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proofCalls[address]
}

// TotalProofCalls reports how many proof fetches happened in total.
func (p *Provider) TotalProofCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalProofCalls
}

// CodeCalls reports how many code fetches happened.
func (p *Provider) CodeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.codeCalls
}

// AccessListCalls reports how many access list requests happened.
func (p *Provider) AccessListCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accessListCalls
}

// SentTransactions returns every raw transaction forwarded so far.
func (p *Provider) SentTransactions() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sentTxs
}

func (p *Provider) stall(ctx context.Context) error {
	if p.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Delay):
		return nil
	}
}

func encodeNodes(nodes [][]byte) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = hexutil.Encode(n)
	}
	return out
}
