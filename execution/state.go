package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/execution/trie"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize    = 4096
	defaultFetchTimeout = 15 * time.Second
)

// State is a read-through cache of verified execution state. Entries are
// keyed by the state root they were verified against, so material fetched
// for one block can never be served for another. Concurrent readers of the
// same key share one provider fetch, and a fetch outlives the reader that
// started it: abandoning callers leave a warm cache behind, not a torn one.
type State struct {
	provider     Provider
	fetchTimeout time.Duration
	group        singleflight.Group
	accounts     *lru.Cache
	storage      *lru.Cache
	codes        *lru.Cache
}

type accountKey struct {
	root    common.Hash
	address common.Address
}

type storageKey struct {
	root    common.Hash
	address common.Address
	slot    common.Hash
}

// NewState creates a verified state cache over the given provider.
func NewState(provider Provider, cacheSize int) (*State, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	accounts, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	storage, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	codes, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &State{
		provider:     provider,
		fetchTimeout: defaultFetchTimeout,
		accounts:     accounts,
		storage:      storage,
		codes:        codes,
	}, nil
}

// Account returns the account at address, verified against root. The block
// number only hints the provider which block to prove against; the proof
// is rejected unless it commits to root.
func (s *State) Account(ctx context.Context, root common.Hash, blockNumber uint64, address common.Address) (*trie.Account, error) {
	key := accountKey{root: root, address: address}
	if v, ok := s.accounts.Get(key); ok {
		proofCacheHits.Inc()
		return v.(*trie.Account), nil
	}
	proofCacheMisses.Inc()
	ch := s.group.DoChan(fmt.Sprintf("account:%x:%x", root, address), func() (interface{}, error) {
		if v, ok := s.accounts.Get(key); ok {
			return v.(*trie.Account), nil
		}
		fctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		res, err := s.provider.GetProof(fctx, address, nil, blockNumber)
		if err != nil {
			return nil, errors.Wrap(err, "could not fetch account proof")
		}
		proof, err := decodeProofNodes(res.AccountProof)
		if err != nil {
			return nil, err
		}
		account, err := trie.VerifyAccount(root, address, proof)
		if err != nil {
			return nil, errors.Wrapf(err, "account proof for %#x rejected", address)
		}
		s.accounts.Add(key, account)
		return account, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*trie.Account), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Storage returns the value of slot at address, verified against root. The
// slot proof is checked against the account's verified storage root, never
// against anything the provider claims.
func (s *State) Storage(ctx context.Context, root common.Hash, blockNumber uint64, address common.Address, slot common.Hash) (common.Hash, error) {
	account, err := s.Account(ctx, root, blockNumber, address)
	if err != nil {
		return common.Hash{}, err
	}
	if account.StorageHash == gethtypes.EmptyRootHash {
		return common.Hash{}, nil
	}
	key := storageKey{root: root, address: address, slot: slot}
	if v, ok := s.storage.Get(key); ok {
		proofCacheHits.Inc()
		return v.(common.Hash), nil
	}
	proofCacheMisses.Inc()
	storageHash := account.StorageHash
	ch := s.group.DoChan(fmt.Sprintf("storage:%x:%x:%x", root, address, slot), func() (interface{}, error) {
		if v, ok := s.storage.Get(key); ok {
			return v.(common.Hash), nil
		}
		fctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		res, err := s.provider.GetProof(fctx, address, []common.Hash{slot}, blockNumber)
		if err != nil {
			return common.Hash{}, errors.Wrap(err, "could not fetch storage proof")
		}
		if len(res.StorageProof) != 1 {
			return common.Hash{}, errors.Errorf("provider returned %d storage proofs, wanted 1", len(res.StorageProof))
		}
		proof, err := decodeProofNodes(res.StorageProof[0].Proof)
		if err != nil {
			return common.Hash{}, err
		}
		value, err := trie.VerifyStorage(storageHash, slot, proof)
		if err != nil {
			return common.Hash{}, errors.Wrapf(err, "storage proof for %#x slot %#x rejected", address, slot)
		}
		s.storage.Add(key, value)
		return value, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return common.Hash{}, res.Err
		}
		return res.Val.(common.Hash), nil
	case <-ctx.Done():
		return common.Hash{}, ctx.Err()
	}
}

// Code returns the bytecode with the given hash, fetched for address at
// blockNumber and admitted only if it hashes to the verified code hash.
// Callers must treat the returned slice as read only.
func (s *State) Code(ctx context.Context, blockNumber uint64, address common.Address, codeHash common.Hash) ([]byte, error) {
	if v, ok := s.codes.Get(codeHash); ok {
		proofCacheHits.Inc()
		return v.([]byte), nil
	}
	proofCacheMisses.Inc()
	ch := s.group.DoChan(fmt.Sprintf("code:%x", codeHash), func() (interface{}, error) {
		if v, ok := s.codes.Get(codeHash); ok {
			return v.([]byte), nil
		}
		fctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		code, err := s.provider.GetCode(fctx, address, blockNumber)
		if err != nil {
			return nil, errors.Wrap(err, "could not fetch code")
		}
		if crypto.Keccak256Hash(code) != codeHash {
			return nil, errors.Wrapf(ErrInvalidCode, "account %#x", address)
		}
		s.codes.Add(codeHash, code)
		return code, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Prefetch warms the caches with the accounts and slots a call is likely
// to touch, guided by the provider's access list oracle. Best effort:
// anything missed or failed here is fetched and verified again on demand.
func (s *State) Prefetch(ctx context.Context, root common.Hash, blockNumber uint64, msg ethereum.CallMsg, coinbase common.Address) {
	touched, err := s.provider.CreateAccessList(ctx, msg, blockNumber)
	if err != nil {
		log.WithError(err).Debug("Could not prefetch access list")
		touched = nil
	}
	g, gctx := errgroup.WithContext(ctx)
	warm := func(address common.Address, slots []common.Hash) {
		g.Go(func() error {
			if _, err := s.Account(gctx, root, blockNumber, address); err != nil {
				return nil
			}
			for _, slot := range slots {
				if _, err := s.Storage(gctx, root, blockNumber, address, slot); err != nil {
					return nil
				}
			}
			return nil
		})
	}
	warm(msg.From, nil)
	if msg.To != nil {
		warm(*msg.To, nil)
	}
	warm(coinbase, nil)
	for _, entry := range touched {
		warm(entry.Address, entry.StorageKeys)
	}
	_ = g.Wait()
}

func decodeProofNodes(proof []string) ([][]byte, error) {
	nodes := make([][]byte, len(proof))
	for i, s := range proof {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed proof node %d from provider", i)
		}
		nodes[i] = b
	}
	return nodes, nil
}
