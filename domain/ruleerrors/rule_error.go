package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidSignature indicates a transaction's signature does not
	// verify against its payload's signing hash and its claimed public
	// key. Malformed signature or public key bytes degrade to this error
	// as well, never to a panic.
	ErrInvalidSignature = newRuleError("ErrInvalidSignature")

	// ErrBadBlockHash indicates a block's cached hash does not recompute
	// from the block's content.
	ErrBadBlockHash = newRuleError("ErrBadBlockHash")

	// ErrBrokenChainLinkage indicates a block's previous-hash field does
	// not match the hash of the block preceding it in the chain.
	ErrBrokenChainLinkage = newRuleError("ErrBrokenChainLinkage")

	// ErrUnexpectedDifficulty indicates a block declares a difficulty
	// other than the one the ledger is configured with.
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty")

	// ErrTargetNotMet indicates a block's hash does not satisfy the
	// proof-of-work target for its declared difficulty.
	ErrTargetNotMet = newRuleError("ErrTargetNotMet")

	// ErrGenesisMismatch indicates the first block of a chain does not
	// carry the all-zero previous-hash sentinel.
	ErrGenesisMismatch = newRuleError("ErrGenesisMismatch")

	// ErrMiningCanceled indicates a mining operation was interrupted
	// before reaching the target. This is a normal outcome, not a
	// corruption: the caller must simply not append anything.
	ErrMiningCanceled = newRuleError("ErrMiningCanceled")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many
// validation rules. It has full support for errors.Unwrap and errors.Is, so
// the caller can find out the specific violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrChainIntegrity reports a validation failure at a specific block index,
// so a caller can decide how to react. The inner error is one of the rule
// errors above and is reachable through errors.Is.
type ErrChainIntegrity struct {
	BlockIndex uint64
	inner      error
}

func (e ErrChainIntegrity) Error() string {
	return fmt.Sprintf("chain integrity violated at block %d: %s", e.BlockIndex, e.inner)
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrChainIntegrity) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e ErrChainIntegrity) Cause() error {
	return e.inner
}

// NewErrChainIntegrity creates a new ErrChainIntegrity error wrapped in a RuleError
func NewErrChainIntegrity(blockIndex uint64, inner error) error {
	return errors.WithStack(RuleError{
		message: "ErrChainIntegrity",
		inner:   ErrChainIntegrity{BlockIndex: blockIndex, inner: inner},
	})
}
