package light_client

import (
	"fmt"

	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
)

type branchConstraint interface {
	[4][32]byte | [5][32]byte | [6][32]byte
}

func buildBranch[T branchConstraint](name string, input [][]byte, depth int) (T, error) {
	var branch T
	if len(input) != depth {
		return branch, fmt.Errorf("%s branch has %d leaves, expected %d", name, len(input), depth)
	}
	for i, leaf := range input {
		if len(leaf) != fieldparams.RootLength {
			return branch, fmt.Errorf("%s branch leaf %d has %d bytes, expected %d", name, i, len(leaf), fieldparams.RootLength)
		}
		branch[i] = bytesutil.ToBytes32(leaf)
	}
	return branch, nil
}

func branchIsZero[T branchConstraint](branch T) bool {
	var zero T
	return branch == zero
}
