package model

// BlockVersion is the only block version this ledger produces or accepts.
const BlockVersion uint32 = 1

// BlockHeader holds everything that goes into a block's hash except the
// transactions themselves, which are committed to through the block hash
// preimage in consensushashing.
//
// Nonce is the only field that is ever mutated, and only while the block is
// being mined. Once a block is appended to a ledger it is immutable.
type BlockHeader struct {
	Version            uint32
	PreviousHash       Hash
	TimeInMilliseconds int64
	Difficulty         uint32
	Nonce              uint64
}

// Clone returns a clone of BlockHeader
func (header *BlockHeader) Clone() *BlockHeader {
	headerClone := *header
	return &headerClone
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = BlockHeader{0, Hash{}, 0, 0, 0}

// Equal returns whether header equals to other
func (header *BlockHeader) Equal(other *BlockHeader) bool {
	if header == nil || other == nil {
		return header == other
	}

	return header.Version == other.Version &&
		header.PreviousHash.Equal(&other.PreviousHash) &&
		header.TimeInMilliseconds == other.TimeInMilliseconds &&
		header.Difficulty == other.Difficulty &&
		header.Nonce == other.Nonce
}

// Block is a container of an ordered transaction sequence plus the header
// fields the transactions are chained through. Transaction order is part of
// the hashed content and must be preserved by any serialization.
type Block struct {
	Header       *BlockHeader
	Transactions []*Transaction
}

// Clone returns a clone of Block
func (block *Block) Clone() *Block {
	transactionsClone := make([]*Transaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactionsClone[i] = tx.Clone()
	}

	return &Block{
		Header:       block.Header.Clone(),
		Transactions: transactionsClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Block{&BlockHeader{}, []*Transaction{}}

// Equal returns whether block equals to other
func (block *Block) Equal(other *Block) bool {
	if block == nil || other == nil {
		return block == other
	}

	if !block.Header.Equal(other.Header) {
		return false
	}

	if len(block.Transactions) != len(other.Transactions) {
		return false
	}
	for i, tx := range block.Transactions {
		if !tx.Equal(other.Transactions[i]) {
			return false
		}
	}

	return true
}
