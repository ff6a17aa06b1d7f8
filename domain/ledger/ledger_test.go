package ledger

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/consensushashing"
	"github.com/cipherguard/cipherguard/domain/keys"
	"github.com/cipherguard/cipherguard/domain/model"
	"github.com/cipherguard/cipherguard/domain/ruleerrors"
)

// fixedTimeSource drives the ledger with a deterministic clock.
type fixedTimeSource struct {
	now time.Time
}

func (f *fixedTimeSource) Now() time.Time {
	return f.now
}

func newTestLedger(t *testing.T, difficulty uint32) *Ledger {
	ledger, err := New(Params{
		Difficulty: difficulty,
		TimeSource: &fixedTimeSource{now: time.Unix(1600000000, 0)},
	})
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	return ledger
}

func newTestTransaction(t *testing.T, payload string) *model.Transaction {
	keyPair, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}
	tx, err := keys.NewSignedTransaction(keyPair, []byte(payload))
	if err != nil {
		t.Fatalf("NewSignedTransaction: %+v", err)
	}
	return tx
}

func TestNewLedgerHasValidGenesis(t *testing.T) {
	ledger := newTestLedger(t, 2)

	if ledger.BlockCount() != 1 {
		t.Fatalf("a new ledger has %d blocks, want 1", ledger.BlockCount())
	}
	genesis, err := ledger.BlockByIndex(0)
	if err != nil {
		t.Fatalf("BlockByIndex: %+v", err)
	}
	if !genesis.Header.PreviousHash.IsZero() {
		t.Fatalf("genesis previous hash is %s, want the zero sentinel", genesis.Header.PreviousHash)
	}
	if len(genesis.Transactions) != 0 {
		t.Fatalf("genesis carries %d transactions, want 0", len(genesis.Transactions))
	}
	if err := ledger.ValidateChain(); err != nil {
		t.Fatalf("a fresh ledger fails validation: %+v", err)
	}
}

// Genesis is exempt from proof-of-work: constructing a ledger at a very high
// difficulty must not mine, and the chain must still validate.
func TestGenesisIsExemptFromProofOfWork(t *testing.T) {
	ledger := newTestLedger(t, 32)

	genesis, err := ledger.BlockByIndex(0)
	if err != nil {
		t.Fatalf("BlockByIndex: %+v", err)
	}
	if genesis.Header.Nonce != 0 {
		t.Fatalf("genesis was mined: nonce is %d", genesis.Header.Nonce)
	}
	if err := ledger.ValidateChain(); err != nil {
		t.Fatalf("genesis exemption is not honored by validation: %+v", err)
	}
}

func TestSubmitTransactionEndToEnd(t *testing.T) {
	ledger := newTestLedger(t, 2)

	keyPair, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}
	tx, err := keys.NewSignedTransaction(keyPair, []byte("hello"))
	if err != nil {
		t.Fatalf("NewSignedTransaction: %+v", err)
	}

	block, err := ledger.SubmitTransaction(tx, nil)
	if err != nil {
		t.Fatalf("SubmitTransaction: %+v", err)
	}
	if ledger.BlockCount() != 2 {
		t.Fatalf("chain has %d blocks after submission, want 2", ledger.BlockCount())
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("mined block carries %d transactions, want 1", len(block.Transactions))
	}
	if !ledger.IsChainValid() {
		t.Fatalf("chain is invalid after a successful submission")
	}

	// Tamper with the embedded payload without re-signing. Validation must
	// fail with a chain integrity violation referencing block index 1.
	ledger.chain[1].block.Transactions[0].Payload = []byte("hellx")

	err = ledger.ValidateChain()
	if err == nil {
		t.Fatalf("validation passed on a tampered chain")
	}
	var integrityErr ruleerrors.ErrChainIntegrity
	if !errors.As(err, &integrityErr) {
		t.Fatalf("validation returned %+v, want an ErrChainIntegrity", err)
	}
	if integrityErr.BlockIndex != 1 {
		t.Fatalf("violation reported at block %d, want 1", integrityErr.BlockIndex)
	}
	if !errors.Is(err, ruleerrors.ErrBadBlockHash) {
		t.Fatalf("validation returned %+v, want ErrBadBlockHash", err)
	}
}

func TestSubmitTransactionRejectsBadSignature(t *testing.T) {
	ledger := newTestLedger(t, 2)

	tx := newTestTransaction(t, "hello")
	tx.Signature[0] ^= 1 // corrupt one bit of the signature

	_, err := ledger.SubmitTransaction(tx, nil)
	if err == nil {
		t.Fatalf("a transaction with a corrupted signature was accepted")
	}
	if !errors.Is(err, ruleerrors.ErrInvalidSignature) {
		t.Fatalf("SubmitTransaction returned %+v, want ErrInvalidSignature", err)
	}
	if ledger.BlockCount() != 1 {
		t.Fatalf("rejection changed the chain length to %d", ledger.BlockCount())
	}
}

func TestChainLinkage(t *testing.T) {
	ledger := newTestLedger(t, 1)

	for i := 0; i < 3; i++ {
		_, err := ledger.SubmitTransaction(newTestTransaction(t, "payload"), nil)
		if err != nil {
			t.Fatalf("SubmitTransaction: %+v", err)
		}
	}
	if _, err := ledger.MineEmptyBlock(nil); err != nil {
		t.Fatalf("MineEmptyBlock: %+v", err)
	}

	for i := 1; i < len(ledger.chain); i++ {
		previousHash := &ledger.chain[i].block.Header.PreviousHash
		if !previousHash.Equal(ledger.chain[i-1].hash) {
			t.Fatalf("block %d references %s while its predecessor's hash is %s",
				i, previousHash, ledger.chain[i-1].hash)
		}
	}
	if !ledger.TipHash().Equal(ledger.chain[len(ledger.chain)-1].hash) {
		t.Fatalf("TipHash disagrees with the last chain entry")
	}
}

func TestValidationIsIdempotent(t *testing.T) {
	ledger := newTestLedger(t, 1)
	if _, err := ledger.SubmitTransaction(newTestTransaction(t, "payload"), nil); err != nil {
		t.Fatalf("SubmitTransaction: %+v", err)
	}

	first := ledger.IsChainValid()
	second := ledger.IsChainValid()
	if first != second {
		t.Fatalf("back-to-back validations disagree: %t then %t", first, second)
	}

	ledger.chain[1].block.Header.TimeInMilliseconds++ // corrupt
	first = ledger.IsChainValid()
	second = ledger.IsChainValid()
	if first || second {
		t.Fatalf("a corrupted chain validated")
	}
}

func TestMiningCancellationLeavesLedgerUnchanged(t *testing.T) {
	ledger := newTestLedger(t, 2)
	tipHash := ledger.TipHash()

	interrupt := make(chan struct{})
	close(interrupt)

	_, err := ledger.SubmitTransaction(newTestTransaction(t, "payload"), interrupt)
	if !errors.Is(err, ruleerrors.ErrMiningCanceled) {
		t.Fatalf("SubmitTransaction returned %+v, want ErrMiningCanceled", err)
	}
	_, err = ledger.MineEmptyBlock(interrupt)
	if !errors.Is(err, ruleerrors.ErrMiningCanceled) {
		t.Fatalf("MineEmptyBlock returned %+v, want ErrMiningCanceled", err)
	}

	if ledger.BlockCount() != 1 {
		t.Fatalf("canceled mining changed the chain length to %d", ledger.BlockCount())
	}
	if !ledger.TipHash().Equal(tipHash) {
		t.Fatalf("canceled mining moved the tip from %s to %s", tipHash, ledger.TipHash())
	}
}

func TestMinedBlocksMeetTarget(t *testing.T) {
	const difficulty = 2
	ledger := newTestLedger(t, difficulty)

	block, err := ledger.MineEmptyBlock(nil)
	if err != nil {
		t.Fatalf("MineEmptyBlock: %+v", err)
	}
	hashString := consensushashing.BlockHash(block).String()
	for i := 0; i < difficulty; i++ {
		if hashString[i] != '0' {
			t.Fatalf("mined block hash %s does not have %d leading zero symbols",
				hashString, difficulty)
		}
	}
}

func TestBlocksAreDefensivelyCloned(t *testing.T) {
	ledger := newTestLedger(t, 1)
	if _, err := ledger.SubmitTransaction(newTestTransaction(t, "payload"), nil); err != nil {
		t.Fatalf("SubmitTransaction: %+v", err)
	}

	// Mutating what Blocks returns must not affect the ledger.
	blocks := ledger.Blocks()
	blocks[1].Transactions[0].Payload[0] ^= 1
	if err := ledger.ValidateChain(); err != nil {
		t.Fatalf("mutating a returned clone corrupted the ledger: %+v", err)
	}
}

func TestNewFromBlocks(t *testing.T) {
	original := newTestLedger(t, 1)
	for i := 0; i < 2; i++ {
		if _, err := original.SubmitTransaction(newTestTransaction(t, "payload"), nil); err != nil {
			t.Fatalf("SubmitTransaction: %+v", err)
		}
	}

	rebuilt, err := NewFromBlocks(Params{Difficulty: 1}, original.Blocks())
	if err != nil {
		t.Fatalf("NewFromBlocks: %+v", err)
	}
	if rebuilt.BlockCount() != original.BlockCount() {
		t.Fatalf("rebuilt ledger has %d blocks, want %d", rebuilt.BlockCount(), original.BlockCount())
	}
	for i := uint64(0); i < original.BlockCount(); i++ {
		originalBlock, _ := original.BlockByIndex(i)
		rebuiltBlock, _ := rebuilt.BlockByIndex(i)
		if !originalBlock.Equal(rebuiltBlock) {
			t.Fatalf("block %d differs after rebuild.\noriginal: %s\nrebuilt: %s",
				i, spew.Sdump(originalBlock), spew.Sdump(rebuiltBlock))
		}
	}
}

func TestNewFromBlocksRejectsTamperedChain(t *testing.T) {
	original := newTestLedger(t, 1)
	if _, err := original.SubmitTransaction(newTestTransaction(t, "payload"), nil); err != nil {
		t.Fatalf("SubmitTransaction: %+v", err)
	}

	blocks := original.Blocks()
	blocks[1].Transactions[0].Payload = []byte("tampered")

	_, err := NewFromBlocks(Params{Difficulty: 1}, blocks)
	if err == nil {
		t.Fatalf("NewFromBlocks accepted a tampered chain")
	}
}

func TestNewFromBlocksRejectsWrongDifficulty(t *testing.T) {
	original := newTestLedger(t, 1)
	if _, err := original.SubmitTransaction(newTestTransaction(t, "payload"), nil); err != nil {
		t.Fatalf("SubmitTransaction: %+v", err)
	}

	_, err := NewFromBlocks(Params{Difficulty: 3}, original.Blocks())
	if !errors.Is(err, ruleerrors.ErrUnexpectedDifficulty) {
		t.Fatalf("NewFromBlocks returned %+v, want ErrUnexpectedDifficulty", err)
	}
}

func TestNewRejectsExcessiveDifficulty(t *testing.T) {
	_, err := New(Params{Difficulty: 65})
	if err == nil {
		t.Fatalf("New accepted a difficulty above the maximum")
	}
}
