package bridge

import (
	"github.com/hackathon-cross/muta-cross/types"
)

// VerifyInclusion walks an inclusion proof from the transaction hash up
// to the block's transactions root. Proof holds the sibling hash at each
// level bottom-up; the bits of index select whether the running hash is
// the left or right child at that level (bit set means right).
func VerifyInclusion(txHash types.Hash, index uint64, proof []types.Hash, root types.Hash) bool {
	current := txHash
	for _, sibling := range proof {
		pair := make([]byte, 0, 2*types.HashLen)
		if index&1 == 1 {
			pair = append(pair, sibling[:]...)
			pair = append(pair, current[:]...)
		} else {
			pair = append(pair, current[:]...)
			pair = append(pair, sibling[:]...)
		}
		current = types.Digest(pair)
		index >>= 1
	}
	return current == root
}
