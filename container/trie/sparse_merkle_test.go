package trie_test

import (
	"strconv"
	"testing"

	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/container/trie"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
	"github.com/prysmaticlabs/lumen/testing/assert"
	"github.com/prysmaticlabs/lumen/testing/require"
)

func TestMerkleTrie_MerkleProofOutOfRange(t *testing.T) {
	items := [][]byte{
		[]byte("A"),
		[]byte("B"),
		[]byte("C"),
	}
	m, err := trie.GenerateTrieFromItems(items, 2)
	require.NoError(t, err)
	if _, err := m.MerkleProof(6); err == nil {
		t.Error("Expected out of range failure, received nil", err)
	}
}

func TestGenerateTrieFromItems_NoItemsProvided(t *testing.T) {
	if _, err := trie.GenerateTrieFromItems(nil, fieldparams.NextSyncCommitteeBranchDepth); err == nil {
		t.Error("Expected error when providing nil items received nil")
	}
}

func TestGenerateTrieFromItems_DepthSupport(t *testing.T) {
	items := [][]byte{
		[]byte("A"),
		[]byte("B"),
	}
	// Supported depth.
	m1, err := trie.GenerateTrieFromItems(items, trie.MaxTrieDepth-1)
	require.NoError(t, err)
	proof, err := m1.MerkleProof(0)
	require.NoError(t, err)
	require.Equal(t, int(trie.MaxTrieDepth-1), len(proof))
	// Unsupported depth.
	_, err = trie.GenerateTrieFromItems(items, trie.MaxTrieDepth)
	require.ErrorContains(t, "supported merkle trie depth exceeded", err)
}

func TestMerkleTrie_VerifyMerkleProofWithDepth(t *testing.T) {
	items := [][]byte{
		[]byte("A"),
		[]byte("B"),
		[]byte("C"),
		[]byte("D"),
		[]byte("E"),
		[]byte("F"),
		[]byte("G"),
		[]byte("H"),
	}
	depth := uint64(fieldparams.FinalityBranchDepth)
	m, err := trie.GenerateTrieFromItems(items, depth)
	require.NoError(t, err)
	proof, err := m.MerkleProof(0)
	require.NoError(t, err)
	require.Equal(t, int(depth), len(proof))
	root := m.Root()
	leaf := bytesutil.ToBytes32(items[0])
	if ok := trie.VerifyMerkleProofWithDepth(root[:], leaf[:], 0, proof, depth); !ok {
		t.Error("First Merkle proof did not verify")
	}
	proof, err = m.MerkleProof(3)
	require.NoError(t, err)
	leaf = bytesutil.ToBytes32(items[3])
	require.Equal(t, true, trie.VerifyMerkleProofWithDepth(root[:], leaf[:], 3, proof, depth))
	buzz := bytesutil.ToBytes32([]byte("buzz"))
	require.Equal(t, false, trie.VerifyMerkleProofWithDepth(root[:], buzz[:], 3, proof, depth))
	// Wrong number of siblings for the claimed depth.
	require.Equal(t, false, trie.VerifyMerkleProofWithDepth(root[:], leaf[:], 3, proof[:len(proof)-1], depth))
	require.Equal(t, false, trie.VerifyMerkleProofWithDepth(root[:], leaf[:], 3, proof, trie.MaxTrieDepth))
}

func TestMerkleTrie_VerifyMerkleProof(t *testing.T) {
	items := [][]byte{
		[]byte("A"),
		[]byte("B"),
		[]byte("C"),
		[]byte("D"),
		[]byte("E"),
		[]byte("F"),
		[]byte("G"),
		[]byte("H"),
	}

	m, err := trie.GenerateTrieFromItems(items, fieldparams.NextSyncCommitteeBranchDepth)
	require.NoError(t, err)
	proof, err := m.MerkleProof(0)
	require.NoError(t, err)
	require.Equal(t, fieldparams.NextSyncCommitteeBranchDepth, len(proof))
	root := m.Root()
	leaf := bytesutil.ToBytes32(items[0])
	if ok := trie.VerifyMerkleProof(root[:], leaf[:], 0, proof); !ok {
		t.Error("First Merkle proof did not verify")
	}
	proof, err = m.MerkleProof(3)
	require.NoError(t, err)
	leaf = bytesutil.ToBytes32(items[3])
	require.Equal(t, true, trie.VerifyMerkleProof(root[:], leaf[:], 3, proof))
	buzz := bytesutil.ToBytes32([]byte("buzz"))
	require.Equal(t, false, trie.VerifyMerkleProof(root[:], buzz[:], 3, proof))
	require.Equal(t, false, trie.VerifyMerkleProof(root[:], leaf[:], 3, [][]byte{}))
}

func TestMerkleTrie_NegativeIndexes(t *testing.T) {
	items := [][]byte{
		[]byte("A"),
		[]byte("B"),
		[]byte("C"),
		[]byte("D"),
	}
	m, err := trie.GenerateTrieFromItems(items, fieldparams.NextSyncCommitteeBranchDepth)
	require.NoError(t, err)
	_, err = m.MerkleProof(-1)
	require.ErrorContains(t, "merkle index is negative", err)
	require.ErrorContains(t, "negative index provided", m.Insert([]byte{'J'}, -1))
}

func TestMerkleTrie_VerifyMerkleProof_TrieUpdated(t *testing.T) {
	items := [][]byte{
		{1},
		{2},
		{3},
		{4},
	}
	depth := uint64(fieldparams.NextSyncCommitteeBranchDepth)
	m, err := trie.GenerateTrieFromItems(items, depth)
	require.NoError(t, err)
	proof, err := m.MerkleProof(0)
	require.NoError(t, err)
	root := m.Root()
	leaf := bytesutil.ToBytes32(items[0])
	require.Equal(t, true, trie.VerifyMerkleProofWithDepth(root[:], leaf[:], 0, proof, depth))

	// Now we update the trie.
	assert.NoError(t, m.Insert([]byte{5}, 3))
	proof, err = m.MerkleProof(3)
	require.NoError(t, err)
	root = m.Root()
	newLeaf := bytesutil.ToBytes32([]byte{5})
	oldLeaf := bytesutil.ToBytes32([]byte{4})
	if ok := trie.VerifyMerkleProofWithDepth(root[:], newLeaf[:], 3, proof, depth); !ok {
		t.Error("Second Merkle proof did not verify")
	}
	if ok := trie.VerifyMerkleProofWithDepth(root[:], oldLeaf[:], 3, proof, depth); ok {
		t.Error("Old item should not verify")
	}

	// Now we update the trie at an index larger than the number of items.
	assert.NoError(t, m.Insert([]byte{6}, 15))
}

func TestCopy_OK(t *testing.T) {
	items := [][]byte{
		{1},
		{2},
		{3},
		{4},
	}
	source, err := trie.GenerateTrieFromItems(items, fieldparams.FinalityBranchDepth)
	require.NoError(t, err)
	copiedTrie := source.Copy()

	if copiedTrie == source {
		t.Errorf("Original trie returned.")
	}
	require.DeepEqual(t, copiedTrie.Root(), source.Root())

	// Mutating the copy must not affect the source.
	require.NoError(t, copiedTrie.Insert([]byte{9}, 0))
	a := copiedTrie.Root()
	b := source.Root()
	if a == b {
		t.Error("Expected roots to diverge after mutating the copy")
	}
}

func TestNumOfItems(t *testing.T) {
	m, err := trie.NewTrie(fieldparams.FinalityBranchDepth)
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumOfItems())

	items := [][]byte{
		{1},
		{2},
		{3},
	}
	m, err = trie.GenerateTrieFromItems(items, fieldparams.FinalityBranchDepth)
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumOfItems())
}

func BenchmarkGenerateTrieFromItems(b *testing.B) {
	items := [][]byte{
		[]byte("A"),
		[]byte("BB"),
		[]byte("CCC"),
		[]byte("DDDD"),
		[]byte("EEEEE"),
		[]byte("FFFFFF"),
		[]byte("GGGGGGG"),
	}
	for i := 0; i < b.N; i++ {
		_, err := trie.GenerateTrieFromItems(items, fieldparams.FinalityBranchDepth)
		require.NoError(b, err, "Could not generate Merkle trie from items")
	}
}

func BenchmarkInsertTrie_Optimized(b *testing.B) {
	b.StopTimer()
	numItems := 16000
	items := make([][]byte, numItems)
	for i := 0; i < numItems; i++ {
		someRoot := bytesutil.ToBytes32([]byte(strconv.Itoa(i)))
		items[i] = someRoot[:]
	}
	tr, err := trie.GenerateTrieFromItems(items, 32)
	require.NoError(b, err)

	someItem := bytesutil.ToBytes32([]byte("hello-world"))
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		require.NoError(b, tr.Insert(someItem[:], i%numItems))
	}
}

func BenchmarkVerifyMerkleProofWithDepth(b *testing.B) {
	b.StopTimer()
	items := [][]byte{
		[]byte("A"),
		[]byte("BB"),
		[]byte("CCC"),
		[]byte("DDDD"),
		[]byte("EEEEE"),
		[]byte("FFFFFF"),
		[]byte("GGGGGGG"),
	}
	depth := uint64(fieldparams.FinalityBranchDepth)
	m, err := trie.GenerateTrieFromItems(items, depth)
	require.NoError(b, err)
	proof, err := m.MerkleProof(2)
	require.NoError(b, err)

	root := m.Root()
	leaf := bytesutil.ToBytes32(items[2])
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if ok := trie.VerifyMerkleProofWithDepth(root[:], leaf[:], 2, proof, depth); !ok {
			b.Error("Merkle proof did not verify")
		}
	}
}
