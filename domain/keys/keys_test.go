package keys

import (
	"testing"

	"github.com/cipherguard/cipherguard/domain/consensushashing"
)

func TestSignVerifyRoundtrip(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}

	signingHash := consensushashing.PayloadSigningHash([]byte("some payload"))
	signature, err := keyPair.SignHash(signingHash)
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	publicKey, err := keyPair.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %+v", err)
	}

	if !VerifySignature(signingHash, signature, publicKey) {
		t.Fatalf("a fresh signature by the matching key did not verify")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}
	otherKeyPair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}

	signingHash := consensushashing.PayloadSigningHash([]byte("some payload"))
	signature, err := keyPair.SignHash(signingHash)
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	otherPublicKey, err := otherKeyPair.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %+v", err)
	}

	if VerifySignature(signingHash, signature, otherPublicKey) {
		t.Fatalf("a signature verified against an unrelated public key")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}
	publicKey, err := keyPair.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %+v", err)
	}

	payload := []byte("some payload")
	signature, err := keyPair.SignHash(consensushashing.PayloadSigningHash(payload))
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}

	// Flip every single bit of the payload in turn. No tampered variant
	// may verify against the original signature.
	for byteIndex := range payload {
		for bitIndex := uint(0); bitIndex < 8; bitIndex++ {
			tampered := make([]byte, len(payload))
			copy(tampered, payload)
			tampered[byteIndex] ^= 1 << bitIndex

			if VerifySignature(consensushashing.PayloadSigningHash(tampered), signature, publicKey) {
				t.Fatalf("signature still verifies after flipping bit %d of byte %d",
					bitIndex, byteIndex)
			}
		}
	}
}

func TestVerifyToleratesMalformedInput(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}
	publicKey, err := keyPair.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %+v", err)
	}

	signingHash := consensushashing.PayloadSigningHash([]byte("some payload"))
	signature, err := keyPair.SignHash(signingHash)
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}

	tests := []struct {
		name      string
		signature []byte
		publicKey []byte
	}{
		{"nil signature", nil, publicKey},
		{"empty signature", []byte{}, publicKey},
		{"short signature", signature[:10], publicKey},
		{"nil public key", signature, nil},
		{"empty public key", signature, []byte{}},
		{"short public key", signature, publicKey[:10]},
		{"garbage public key", signature, []byte("garbage garbage garbage garbage!")},
	}
	for _, test := range tests {
		// Malformed input must degrade to "does not verify", never panic.
		if VerifySignature(signingHash, test.signature, test.publicKey) {
			t.Errorf("%s: malformed input unexpectedly verified", test.name)
		}
	}
}

func TestMnemonicRecoversSameKeyPair(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %+v", err)
	}

	keyPair, err := KeyPairFromMnemonic(mnemonic)
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic: %+v", err)
	}
	recovered, err := KeyPairFromMnemonic(mnemonic)
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic (second time): %+v", err)
	}

	publicKey, err := keyPair.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %+v", err)
	}
	recoveredPublicKey, err := recovered.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %+v", err)
	}
	if string(publicKey) != string(recoveredPublicKey) {
		t.Fatalf("the same mnemonic recovered a different key pair")
	}
}

func TestKeyPairFromMnemonicRejectsInvalidMnemonic(t *testing.T) {
	_, err := KeyPairFromMnemonic("definitely not a valid mnemonic")
	if err == nil {
		t.Fatalf("KeyPairFromMnemonic accepted an invalid mnemonic")
	}
}

func TestNewSignedTransaction(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %+v", err)
	}

	tx, err := NewSignedTransaction(keyPair, []byte("hello"))
	if err != nil {
		t.Fatalf("NewSignedTransaction: %+v", err)
	}

	if !VerifySignature(consensushashing.TransactionSigningHash(tx), tx.Signature, tx.PublicKey) {
		t.Fatalf("NewSignedTransaction produced a transaction that does not verify")
	}
	if len(tx.PublicKey) != PublicKeySize {
		t.Fatalf("public key has length %d, want %d", len(tx.PublicKey), PublicKeySize)
	}
	if len(tx.Signature) != SignatureSize {
		t.Fatalf("signature has length %d, want %d", len(tx.Signature), SignatureSize)
	}
}
