package pow

import (
	"math/big"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/consensushashing"
	"github.com/cipherguard/cipherguard/domain/model"
	"github.com/cipherguard/cipherguard/domain/ruleerrors"
)

// MaxDifficulty is the highest representable difficulty: 64 leading zero
// hex symbols is the entire 256-bit digest.
const MaxDifficulty = model.HashSize * 2

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// hashesTried counts hashing attempts across all mining operations in the
// process, for hash rate reporting.
var hashesTried uint64

// TargetFromDifficulty converts a difficulty to the numeric target a block
// hash must be strictly below. For difficulty d the target is 2^(256-4d),
// which is exactly "at least d leading zero hex symbols" in the hash's
// string representation. Difficulties above MaxDifficulty are treated as
// MaxDifficulty.
func TargetFromDifficulty(difficulty uint32) *big.Int {
	if difficulty >= MaxDifficulty {
		return big.NewInt(1)
	}
	return new(big.Int).Rsh(oneLsh256, uint(4*difficulty))
}

// CheckProofOfWork reports whether the given hash satisfies the target for
// the given difficulty. Hashes compare as big-endian unsigned integers, so
// the textual and the numeric forms of the predicate agree.
func CheckProofOfWork(hash *model.Hash, difficulty uint32) bool {
	hashAsInt := new(big.Int).SetBytes(hash.ByteSlice())
	return hashAsInt.Cmp(TargetFromDifficulty(difficulty)) < 0
}

// SolveBlock searches for a nonce that makes the block's hash satisfy the
// target for the difficulty declared in the block's header. The search
// starts from the nonce currently in the header and mutates only the nonce.
// On success the solved hash is returned and the header holds the solving
// nonce.
//
// This is intentionally unbounded work: expected iterations grow
// exponentially with difficulty. Closing the interrupt channel makes the
// search return ruleerrors.ErrMiningCanceled promptly, leaving the caller
// free to discard the half-mined block. A nil interrupt channel means the
// search can only end by solving.
func SolveBlock(block *model.Block, interrupt <-chan struct{}) (*model.Hash, error) {
	target := TargetFromDifficulty(block.Header.Difficulty)
	hashAsInt := new(big.Int)

	for {
		select {
		case <-interrupt:
			return nil, errors.WithStack(ruleerrors.ErrMiningCanceled)
		default:
		}

		hash := consensushashing.BlockHash(block)
		atomic.AddUint64(&hashesTried, 1)
		if hashAsInt.SetBytes(hash.ByteSlice()).Cmp(target) < 0 {
			return hash, nil
		}
		block.Header.Nonce++
	}
}

// SampleHashesTried returns the number of hashing attempts since the
// previous sample and resets the counter. Used for periodic hash rate
// logging.
func SampleHashesTried() uint64 {
	sample := atomic.LoadUint64(&hashesTried)
	atomic.AddUint64(&hashesTried, -sample)
	return sample
}
