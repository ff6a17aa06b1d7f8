package hashes

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// The domain separation keys below make sure a hash produced for one purpose
// can never collide with a hash produced for another, even over identical
// input bytes.
const (
	blockDomain              = "BlockHash"
	transactionSigningDomain = "TransactionSigningHash"
)

// NewBlockHashWriter returns a new HashWriter used for block hashes
func NewBlockHashWriter() HashWriter {
	return newHashWriter(blockDomain)
}

// NewTransactionSigningHashWriter returns a new HashWriter used for hashes
// that are signed by transaction submitters
func NewTransactionSigningHashWriter() HashWriter {
	return newHashWriter(transactionSigningDomain)
}

func newHashWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}
