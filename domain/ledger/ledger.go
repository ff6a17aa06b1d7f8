package ledger

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/consensushashing"
	"github.com/cipherguard/cipherguard/domain/keys"
	"github.com/cipherguard/cipherguard/domain/model"
	"github.com/cipherguard/cipherguard/domain/pow"
	"github.com/cipherguard/cipherguard/domain/ruleerrors"
	"github.com/cipherguard/cipherguard/util/mstime"
)

// TimeSource provides the current time for block timestamps. It is an
// explicit dependency so tests can drive the ledger with a deterministic
// clock.
type TimeSource interface {
	Now() time.Time
}

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time {
	return mstime.Now()
}

// Params holds the configuration a Ledger is constructed with.
type Params struct {
	// Difficulty is the proof-of-work target parameter: the number of
	// leading zero hex symbols every mined block's hash must have.
	Difficulty uint32

	// TimeSource is the clock block timestamps are read from. If nil, the
	// system clock at millisecond precision is used.
	TimeSource TimeSource
}

// chainBlock pairs a block with its cached hash. The hash is computed once,
// when the block enters the chain, and is the sole externally trusted
// fingerprint of the block's content; validation recomputes it from scratch
// to detect any later corruption of the stored block.
type chainBlock struct {
	block *model.Block
	hash  *model.Hash
}

// Ledger owns an append-only chain of blocks. All operations on a Ledger
// are safe for concurrent use; the mutex is held across the whole
// read-tip/mine/append sequence, so no two mining operations can ever run
// against the same chain tip.
type Ledger struct {
	mutex      sync.RWMutex
	difficulty uint32
	timeSource TimeSource
	chain      []*chainBlock
}

// New constructs a Ledger containing exactly one genesis block.
//
// The genesis block is exempt from the proof-of-work requirement: it is
// built with nonce 0 and never mined, so construction has bounded latency
// at any difficulty. Validation applies the target predicate from height 1
// onward.
func New(params Params) (*Ledger, error) {
	if params.Difficulty > pow.MaxDifficulty {
		return nil, errors.Errorf("difficulty %d is above the maximum of %d",
			params.Difficulty, pow.MaxDifficulty)
	}
	timeSource := params.TimeSource
	if timeSource == nil {
		timeSource = systemTimeSource{}
	}

	ledger := &Ledger{
		difficulty: params.Difficulty,
		timeSource: timeSource,
	}
	genesis := ledger.buildGenesis()
	ledger.chain = append(ledger.chain, genesis)

	log.Debugf("Created ledger with difficulty %d, genesis %s",
		params.Difficulty, genesis.hash)
	return ledger, nil
}

// NewFromBlocks reconstructs a Ledger from a previously persisted chain,
// for example one read back by an external storage collaborator. The loaded
// chain is validated in full before the ledger is returned.
func NewFromBlocks(params Params, blocks []*model.Block) (*Ledger, error) {
	if params.Difficulty > pow.MaxDifficulty {
		return nil, errors.Errorf("difficulty %d is above the maximum of %d",
			params.Difficulty, pow.MaxDifficulty)
	}
	if len(blocks) == 0 {
		return nil, errors.New("cannot reconstruct a ledger from an empty chain")
	}
	timeSource := params.TimeSource
	if timeSource == nil {
		timeSource = systemTimeSource{}
	}

	ledger := &Ledger{
		difficulty: params.Difficulty,
		timeSource: timeSource,
		chain:      make([]*chainBlock, 0, len(blocks)),
	}
	for _, block := range blocks {
		blockClone := block.Clone()
		ledger.chain = append(ledger.chain, &chainBlock{
			block: blockClone,
			hash:  consensushashing.BlockHash(blockClone),
		})
	}

	err := ledger.ValidateChain()
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (l *Ledger) buildGenesis() *chainBlock {
	genesis := &model.Block{
		Header: &model.BlockHeader{
			Version:            model.BlockVersion,
			PreviousHash:       model.Hash{},
			TimeInMilliseconds: mstime.UnixMilliseconds(l.timeSource.Now()),
			Difficulty:         l.difficulty,
			Nonce:              0,
		},
	}
	return &chainBlock{
		block: genesis,
		hash:  consensushashing.BlockHash(genesis),
	}
}

// SubmitTransaction verifies the given transaction's signature, wraps it in
// a new block referencing the chain tip, mines the block at the ledger's
// difficulty and appends it. The mined block is returned.
//
// On an invalid signature the transaction is rejected with
// ruleerrors.ErrInvalidSignature and the ledger is unchanged. If the
// interrupt channel is closed before a nonce is found, mining stops with
// ruleerrors.ErrMiningCanceled and, likewise, the ledger is unchanged.
//
// One transaction per block is the contract here; batching is not exposed.
func (l *Ledger) SubmitTransaction(tx *model.Transaction, interrupt <-chan struct{}) (*model.Block, error) {
	signingHash := consensushashing.TransactionSigningHash(tx)
	if !keys.VerifySignature(signingHash, tx.Signature, tx.PublicKey) {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidSignature,
			"transaction with signing hash %s was rejected", signingHash)
	}

	return l.mineAndAppend([]*model.Transaction{tx.Clone()}, interrupt)
}

// MineEmptyBlock mines and appends a block with an empty transaction list,
// extending the chain without any pending transactions. The cancellation
// contract is the same as SubmitTransaction's.
func (l *Ledger) MineEmptyBlock(interrupt <-chan struct{}) (*model.Block, error) {
	return l.mineAndAppend(nil, interrupt)
}

// mineAndAppend holds the ledger mutex for the whole tip-read/mine/append
// sequence. The candidate block is owned by this goroutine until appended,
// so no other component can ever observe a half-mined block.
func (l *Ledger) mineAndAppend(transactions []*model.Transaction, interrupt <-chan struct{}) (*model.Block, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	tip := l.chain[len(l.chain)-1]
	block := &model.Block{
		Header: &model.BlockHeader{
			Version:            model.BlockVersion,
			PreviousHash:       *tip.hash,
			TimeInMilliseconds: mstime.UnixMilliseconds(l.timeSource.Now()),
			Difficulty:         l.difficulty,
			Nonce:              0,
		},
		Transactions: transactions,
	}

	blockHash, err := pow.SolveBlock(block, interrupt)
	if err != nil {
		return nil, err
	}

	l.chain = append(l.chain, &chainBlock{block: block, hash: blockHash})
	log.Infof("Appended block %d %s (nonce %d, %d transaction(s))",
		len(l.chain)-1, blockHash, block.Header.Nonce, len(block.Transactions))
	return block.Clone(), nil
}

// BlockCount returns the number of blocks in the chain, genesis included.
func (l *Ledger) BlockCount() uint64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return uint64(len(l.chain))
}

// BlockByIndex returns a clone of the block at the given chain index.
// Index 0 is the genesis block.
func (l *Ledger) BlockByIndex(index uint64) (*model.Block, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if index >= uint64(len(l.chain)) {
		return nil, errors.Errorf("block index %d is out of range, chain has %d blocks",
			index, len(l.chain))
	}
	return l.chain[index].block.Clone(), nil
}

// Blocks returns a clone of the whole chain, in order. External
// collaborators use this for serialization and persistence; the clones
// cannot alias the ledger's own state.
func (l *Ledger) Blocks() []*model.Block {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	blocks := make([]*model.Block, len(l.chain))
	for i, chainBlock := range l.chain {
		blocks[i] = chainBlock.block.Clone()
	}
	return blocks
}

// TipHash returns the hash of the most recently appended block.
func (l *Ledger) TipHash() *model.Hash {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.chain[len(l.chain)-1].hash
}
