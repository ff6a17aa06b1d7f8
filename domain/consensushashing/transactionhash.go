package consensushashing

import (
	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/hashes"
	"github.com/cipherguard/cipherguard/domain/model"
)

// TransactionSigningHash returns the hash a transaction's submitter signs:
// a digest over the payload alone. The signature and public key are
// deliberately excluded, since the signature is computed over this hash and
// the public key identifies the signer rather than the signed content.
func TransactionSigningHash(tx *model.Transaction) *model.Hash {
	return PayloadSigningHash(tx.Payload)
}

// PayloadSigningHash returns the signing hash for raw payload bytes, before
// they are wrapped in a transaction. Any byte sequence, including empty,
// is accepted.
func PayloadSigningHash(payload []byte) *model.Hash {
	writer := hashes.NewTransactionSigningHashWriter()
	err := writeVarBytes(writer, payload)
	if err != nil {
		// this writer never returns errors (no allocations or possible failures).
		panic(errors.Wrap(err, "PayloadSigningHash() failed. this should never fail"))
	}
	return writer.Finalize()
}
