package keys

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/model"
)

// PublicKeySize is the length in bytes of a serialized Schnorr public key.
const PublicKeySize = 32

// SignatureSize is the length in bytes of a serialized Schnorr signature.
const SignatureSize = 64

// KeyPair is a secp256k1 Schnorr key pair. The private part never leaves
// this package except through SerializePrivateKey.
type KeyPair struct {
	keyPair *secp256k1.SchnorrKeyPair
}

// GenerateKeyPair generates a fresh key pair using the operating system's
// cryptographically secure random source.
func GenerateKeyPair() (*KeyPair, error) {
	privateKey, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}
	return &KeyPair{keyPair: privateKey}, nil
}

// KeyPairFromPrivateKeyBytes reconstructs a key pair from a serialized
// 32-byte private key.
func KeyPairFromPrivateKeyBytes(privateKeyBytes []byte) (*KeyPair, error) {
	privateKey, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKeyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to deserialize private key")
	}
	return &KeyPair{keyPair: privateKey}, nil
}

// SignHash signs the given hash and returns the serialized signature.
func (kp *KeyPair) SignHash(hash *model.Hash) ([]byte, error) {
	secpHash := secp256k1.Hash(*hash.ByteArray())
	signature, err := kp.keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign hash %s", hash)
	}
	serializedSignature := signature.Serialize()
	return serializedSignature[:], nil
}

// PublicKeyBytes returns the serialized public key of this key pair. This is
// the value a transaction carries as its signer identity.
func (kp *KeyPair) PublicKeyBytes() ([]byte, error) {
	publicKey, err := kp.keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive public key")
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize public key")
	}
	return serializedPublicKey[:], nil
}

// SerializePrivateKey returns the serialized 32-byte private key.
func (kp *KeyPair) SerializePrivateKey() []byte {
	serializedPrivateKey := kp.keyPair.SerializePrivateKey()
	return serializedPrivateKey[:]
}

// VerifySignature is a pure predicate: it reports whether signature is a
// valid Schnorr signature over hash by the holder of publicKey. Malformed
// signature or public key bytes are treated as "does not verify" rather
// than as a crash condition, so attacker-controlled input can never abort
// the process.
func VerifySignature(hash *model.Hash, signature []byte, publicKey []byte) bool {
	deserializedPublicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKey)
	if err != nil {
		return false
	}
	deserializedSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signature)
	if err != nil {
		return false
	}

	secpHash := secp256k1.Hash(*hash.ByteArray())
	return deserializedPublicKey.SchnorrVerify(&secpHash, deserializedSignature)
}
