package keys

import (
	"github.com/cipherguard/cipherguard/domain/consensushashing"
	"github.com/cipherguard/cipherguard/domain/model"
)

// NewSignedTransaction builds a transaction carrying the given payload,
// signed by the given key pair. The returned transaction verifies against
// the key pair's public key and is ready for submission to a ledger.
func NewSignedTransaction(keyPair *KeyPair, payload []byte) (*model.Transaction, error) {
	signingHash := consensushashing.PayloadSigningHash(payload)
	signature, err := keyPair.SignHash(signingHash)
	if err != nil {
		return nil, err
	}
	publicKey, err := keyPair.PublicKeyBytes()
	if err != nil {
		return nil, err
	}

	payloadClone := make([]byte, len(payload))
	copy(payloadClone, payload)
	return &model.Transaction{
		Payload:   payloadClone,
		Signature: signature,
		PublicKey: publicKey,
	}, nil
}
