// Package htr provides access to vectorized sha256 hashing of 32-byte chunks.
package htr

import (
	"sync"

	"github.com/prysmaticlabs/gohashtree"
)

const minSliceSizeToParallelize = 5000

func hashParallel(inputList [][32]byte, outputList [][32]byte, wg *sync.WaitGroup) {
	defer wg.Done()
	if err := gohashtree.Hash(outputList, inputList); err != nil {
		panic(err)
	}
}

// VectorizedSha256 takes a list of roots and hashes them using CPU
// specific vector instructions. Depending on host machine's specific
// hardware configuration, using this routine can lead to a significant
// performance improvement compared to the default method of hashing
// lists.
func VectorizedSha256(inputList [][32]byte) [][32]byte {
	if len(inputList)%2 != 0 {
		panic("input list length must be even")
	}
	outputList := make([][32]byte, len(inputList)/2)
	if len(inputList) > minSliceSizeToParallelize {
		wg := &sync.WaitGroup{}
		// Each half must keep an even length so that every chunk pair stays together.
		half := (len(inputList) / 2) &^ 1
		wg.Add(2)
		go hashParallel(inputList[:half], outputList[:half/2], wg)
		go hashParallel(inputList[half:], outputList[half/2:], wg)
		wg.Wait()
	} else if err := gohashtree.Hash(outputList, inputList); err != nil {
		panic(err)
	}
	return outputList
}
