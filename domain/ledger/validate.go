package ledger

import (
	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/consensushashing"
	"github.com/cipherguard/cipherguard/domain/keys"
	"github.com/cipherguard/cipherguard/domain/model"
	"github.com/cipherguard/cipherguard/domain/pow"
	"github.com/cipherguard/cipherguard/domain/ruleerrors"
	"github.com/cipherguard/cipherguard/infrastructure/logger"
)

// ValidateChain walks the whole chain and re-derives every invariant the
// ledger relies on: each block's hash recomputes from its content, each
// block links to its predecessor's hash, every block past genesis meets the
// proof-of-work target at the ledger's difficulty, and every embedded
// transaction's signature still verifies.
//
// The walk short-circuits on the first violation, returned as a
// ruleerrors.ErrChainIntegrity carrying the offending block index; the
// specific violation is reachable through errors.Is. Validation never
// mutates the chain, so calling it repeatedly without intervening writes
// always yields the same result.
func (l *Ledger) ValidateChain() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateChain")
	defer onEnd()

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	for i, current := range l.chain {
		index := uint64(i)
		err := l.validateBlockHash(current)
		if err != nil {
			return ruleerrors.NewErrChainIntegrity(index, err)
		}

		if i == 0 {
			// The genesis block is exempt from proof-of-work and has no
			// predecessor; it only has to carry the all-zero sentinel.
			if !current.block.Header.PreviousHash.IsZero() {
				return ruleerrors.NewErrChainIntegrity(index, errors.Wrapf(
					ruleerrors.ErrGenesisMismatch,
					"genesis previous hash is %s instead of the zero sentinel",
					current.block.Header.PreviousHash))
			}
		} else {
			err = l.validateBlockInContext(current, l.chain[i-1])
			if err != nil {
				return ruleerrors.NewErrChainIntegrity(index, err)
			}
		}

		err = l.validateBlockTransactions(current)
		if err != nil {
			return ruleerrors.NewErrChainIntegrity(index, err)
		}
	}
	return nil
}

// IsChainValid reports whether ValidateChain finds no violation. Callers
// that need to know which invariant failed, and at which block, should call
// ValidateChain directly.
func (l *Ledger) IsChainValid() bool {
	err := l.ValidateChain()
	if err != nil {
		log.Warnf("Chain validation failed: %s", err)
		return false
	}
	return true
}

func (l *Ledger) validateBlockHash(current *chainBlock) error {
	recomputed := consensushashing.BlockHash(current.block)
	if !recomputed.Equal(current.hash) {
		return errors.Wrapf(ruleerrors.ErrBadBlockHash,
			"block hash is cached as %s but recomputes to %s",
			current.hash, recomputed)
	}
	return nil
}

func (l *Ledger) validateBlockInContext(current, previous *chainBlock) error {
	if !current.block.Header.PreviousHash.Equal(previous.hash) {
		return errors.Wrapf(ruleerrors.ErrBrokenChainLinkage,
			"block references previous hash %s while the preceding block's hash is %s",
			current.block.Header.PreviousHash, previous.hash)
	}
	if current.block.Header.Difficulty != l.difficulty {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty,
			"block declares difficulty %d while the ledger requires %d",
			current.block.Header.Difficulty, l.difficulty)
	}
	if !pow.CheckProofOfWork(current.hash, l.difficulty) {
		return errors.Wrapf(ruleerrors.ErrTargetNotMet,
			"block hash %s does not meet the target for difficulty %d",
			current.hash, l.difficulty)
	}
	return nil
}

func (l *Ledger) validateBlockTransactions(current *chainBlock) error {
	for i, tx := range current.block.Transactions {
		err := validateTransaction(tx)
		if err != nil {
			return errors.Wrapf(err, "transaction %d", i)
		}
	}
	return nil
}

func validateTransaction(tx *model.Transaction) error {
	signingHash := consensushashing.TransactionSigningHash(tx)
	if !keys.VerifySignature(signingHash, tx.Signature, tx.PublicKey) {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature,
			"signature does not verify for signing hash %s", signingHash)
	}
	return nil
}
