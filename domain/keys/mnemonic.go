package keys

import (
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic generates a fresh BIP-39 mnemonic that can later recover
// a key pair via KeyPairFromMnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate mnemonic entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate mnemonic")
	}
	return mnemonic, nil
}

// KeyPairFromMnemonic deterministically recovers the key pair backed up by
// the given mnemonic. The same mnemonic always yields the same key pair.
func KeyPairFromMnemonic(mnemonic string) (*KeyPair, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}

	// The BIP-39 seed is 64 bytes; the first 32 are used as the private
	// key scalar. Deserialization rejects the negligible fraction of seeds
	// that fall outside the curve order.
	return KeyPairFromPrivateKeyBytes(seed[:32])
}
