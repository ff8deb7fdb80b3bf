package net

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestCFB8StreamRoundTrip(t *testing.T) {
	secret := make([]byte, 16)
	r := rand.New(rand.NewSource(3))
	r.Read(secret)

	enc, dec, err := newCFB8Pair(secret)
	if err != nil {
		t.Fatalf("cipher pair: %v", err)
	}

	plain := make([]byte, 1000)
	r.Read(plain)

	// Encrypt and decrypt in mismatched chunk sizes: the keystream must
	// carry across calls, since a fresh cipher per frame is incorrect.
	ct := make([]byte, len(plain))
	for i := 0; i < len(plain); {
		n := 1 + r.Intn(100)
		if i+n > len(plain) {
			n = len(plain) - i
		}
		enc.XORKeyStream(ct[i:i+n], plain[i:i+n])
		i += n
	}
	got := make([]byte, len(ct))
	for i := 0; i < len(ct); {
		n := 1 + r.Intn(37)
		if i+n > len(ct) {
			n = len(ct) - i
		}
		dec.XORKeyStream(got[i:i+n], ct[i:i+n])
		i += n
	}

	if bytes.Equal(ct, plain) {
		t.Fatal("ciphertext equals plaintext")
	}
	if !bytes.Equal(got, plain) {
		t.Fatal("decrypt(encrypt(x)) != x across chunk boundaries")
	}
}

func TestVerifyTokenMismatchRejected(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// An attacker echoing garbage instead of the RSA-encrypted token must
	// be rejected before any secret is installed.
	if _, err := kp.VerifyAndDecryptSecret([]byte("junk"), []byte("junk"), []byte{1, 2, 3, 4}); err == nil {
		t.Fatal("expected an error for a forged verify token")
	}
}
