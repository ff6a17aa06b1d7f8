package model

import "bytes"

// Transaction is an immutable record of application payload bytes, a
// Schnorr signature over the payload's signing hash, and the serialized
// public key of the claimed signer.
type Transaction struct {
	Payload   []byte
	Signature []byte
	PublicKey []byte
}

// Clone returns a clone of Transaction
func (tx *Transaction) Clone() *Transaction {
	payloadClone := make([]byte, len(tx.Payload))
	copy(payloadClone, tx.Payload)
	signatureClone := make([]byte, len(tx.Signature))
	copy(signatureClone, tx.Signature)
	publicKeyClone := make([]byte, len(tx.PublicKey))
	copy(publicKeyClone, tx.PublicKey)

	return &Transaction{
		Payload:   payloadClone,
		Signature: signatureClone,
		PublicKey: publicKeyClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Transaction{[]byte{}, []byte{}, []byte{}}

// Equal returns whether tx equals to other
func (tx *Transaction) Equal(other *Transaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}

	return bytes.Equal(tx.Payload, other.Payload) &&
		bytes.Equal(tx.Signature, other.Signature) &&
		bytes.Equal(tx.PublicKey, other.PublicKey)
}
