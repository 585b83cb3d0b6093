// Package trie verifies Merkle-Patricia proofs of the execution state, as
// served by eth_getProof. Verification is pure: the only inputs are the
// trusted root, the key, and the ordered proof nodes, and the only outputs
// are the proven value (or its proven absence) and typed errors.
package trie

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	// ErrRootMismatch is returned when a proof node does not hash to the
	// reference held by its parent, or to the trusted root for the first node.
	ErrRootMismatch = errors.New("proof node does not hash to its parent reference")
	// ErrMalformedNode is returned when a proof node cannot be interpreted as
	// a trie node, or when the node structure contradicts the key path.
	ErrMalformedNode = errors.New("malformed proof node")
)

// emptyRoot is the root of an empty Merkle-Patricia trie,
// keccak256(rlp(nil)).
var emptyRoot = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

const (
	branchNodeElems = 17
	shortNodeElems  = 2
	// branchValueIdx is the branch slot holding a value for keys that are
	// fully consumed at the branch.
	branchValueIdx = 16
)

// Verify walks the ordered proof nodes for key, starting at root, and returns
// the value proven to sit at the key. Each node must hash to the reference
// held by its parent; the path through branch and extension nodes is driven
// by successive nibbles of the key. The boolean reports presence: a proof
// that ends in an empty branch child or a diverging path is a valid
// exclusion proof, returned with no value and no error. Every proof node
// must take part in the walk, so a single flipped byte anywhere in the proof
// surfaces as ErrRootMismatch or ErrMalformedNode.
func Verify(root common.Hash, key []byte, proof [][]byte) ([]byte, bool, error) {
	if len(proof) == 0 {
		if root == emptyRoot {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(ErrRootMismatch, "empty proof for a non-empty trie")
	}
	nibbles := keyNibbles(key)
	pos := 0
	want := root
	for i, enc := range proof {
		if crypto.Keccak256Hash(enc) != want {
			return nil, false, errors.Wrapf(ErrRootMismatch, "proof node %d", i)
		}
		last := i == len(proof)-1
		node := enc
	walk:
		// Embedded children keep the walk inside the current proof node, so
		// this loop can take several steps per node.
		for {
			elems, err := listContent(node)
			if err != nil {
				return nil, false, errors.Wrapf(err, "proof node %d", i)
			}
			count, err := rlp.CountValues(elems)
			if err != nil {
				return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: %v", i, err)
			}
			switch count {
			case branchNodeElems:
				idx := branchValueIdx
				if pos < len(nibbles) {
					idx = int(nibbles[pos])
				}
				kind, content, raw, err := nodeElem(elems, idx)
				if err != nil {
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: %v", i, err)
				}
				if idx == branchValueIdx {
					// The key is fully consumed: the branch value slot decides.
					if kind == rlp.List {
						return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: branch value is not a byte string", i)
					}
					if !last {
						return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: nodes remain after the key resolved", i)
					}
					if len(content) == 0 {
						return nil, false, nil
					}
					return content, true, nil
				}
				switch {
				case kind == rlp.List:
					// Child small enough to be embedded in its parent.
					node = raw
					pos++
					continue
				case kind == rlp.String && len(content) == 0:
					// No child under the key nibble: the key is proven absent.
					if !last {
						return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: nodes remain after an empty branch child", i)
					}
					return nil, false, nil
				case kind == rlp.String && len(content) == common.HashLength:
					want = common.BytesToHash(content)
					pos++
					break walk
				default:
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: branch child %d is not a valid reference", i, idx)
				}
			case shortNodeElems:
				kind, compact, _, err := nodeElem(elems, 0)
				if err != nil {
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: %v", i, err)
				}
				if kind == rlp.List {
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: path is not a byte string", i)
				}
				path, leaf, ok := decodeCompact(compact)
				if !ok {
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: invalid hex prefix encoding", i)
				}
				vkind, vcontent, vraw, err := nodeElem(elems, 1)
				if err != nil {
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: %v", i, err)
				}
				if leaf {
					if !bytes.Equal(nibbles[pos:], path) {
						// A leaf for a different key proves this one absent.
						if !last {
							return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: nodes remain after a diverging leaf", i)
						}
						return nil, false, nil
					}
					if vkind == rlp.List {
						return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: leaf value is not a byte string", i)
					}
					if !last {
						return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: nodes remain after the key resolved", i)
					}
					return vcontent, true, nil
				}
				if len(path) == 0 {
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: extension with an empty path", i)
				}
				if !bytes.HasPrefix(nibbles[pos:], path) {
					// An extension toward a different key proves this one absent.
					if !last {
						return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: nodes remain after a diverging extension", i)
					}
					return nil, false, nil
				}
				pos += len(path)
				switch {
				case vkind == rlp.List:
					node = vraw
					continue
				case vkind == rlp.String && len(vcontent) == common.HashLength:
					want = common.BytesToHash(vcontent)
					break walk
				default:
					return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d: extension target is not a valid reference", i)
				}
			default:
				return nil, false, errors.Wrapf(ErrMalformedNode, "proof node %d has %d elements", i, count)
			}
		}
	}
	return nil, false, errors.Wrap(ErrMalformedNode, "proof ends before the key path resolves")
}

// listContent unwraps the outer RLP list of a trie node and rejects trailing
// bytes, returning the concatenated encoding of the node's elements.
func listContent(node []byte) ([]byte, error) {
	elems, rest, err := rlp.SplitList(node)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedNode, "%v", err)
	}
	if len(rest) > 0 {
		return nil, errors.Wrap(ErrMalformedNode, "trailing bytes after node")
	}
	return elems, nil
}

// nodeElem splits out element idx of a node body, returning its RLP kind,
// its content, and its raw encoding (needed to descend into embedded
// children).
func nodeElem(elems []byte, idx int) (rlp.Kind, []byte, []byte, error) {
	rest := elems
	for {
		kind, content, next, err := rlp.Split(rest)
		if err != nil {
			return 0, nil, nil, err
		}
		if idx == 0 {
			return kind, content, rest[:len(rest)-len(next)], nil
		}
		idx--
		rest = next
	}
}

// keyNibbles expands a key into its sequence of hex nibbles, high nibble
// first. No terminator is appended; leaf and extension nodes are told apart
// by their hex prefix flag instead.
func keyNibbles(key []byte) []byte {
	nibbles := make([]byte, 0, len(key)*2)
	for _, b := range key {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	return nibbles
}

// decodeCompact expands a hex prefix encoded path into nibbles and reports
// whether the node terminates at a value. The two flag bits select leaf
// versus extension and odd versus even length; anything else, including a
// nonzero padding nibble, is rejected.
func decodeCompact(compact []byte) (nibbles []byte, leaf bool, ok bool) {
	if len(compact) == 0 {
		return nil, false, false
	}
	flag := compact[0] >> 4
	if flag > 3 {
		return nil, false, false
	}
	leaf = flag&2 != 0
	if flag&1 != 0 {
		nibbles = append(nibbles, compact[0]&0x0f)
	} else if compact[0]&0x0f != 0 {
		return nil, false, false
	}
	for _, b := range compact[1:] {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	return nibbles, leaf, true
}
