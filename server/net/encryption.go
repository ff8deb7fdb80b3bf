package net

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"errors"
)

// ErrBadVerifyToken is returned when a client's EncryptionResponse does not
// decrypt to the verify token the server sent, per spec.md §4.3.
var ErrBadVerifyToken = errors.New("net: bad verify token")

// KeyPair is the ephemeral RSA key pair a session generates for one login
// attempt's Encryption Request.
type KeyPair struct {
	Private *rsa.PrivateKey
}

// GenerateKeyPair creates a fresh 1024-bit RSA key pair, the size the
// Java-edition protocol expects for the login encryption exchange.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Private: priv}, nil
}

// PublicKeyDER returns the X.509/DER encoding of the public key, the form
// sent in the Encryption Request packet body.
func (k *KeyPair) PublicKeyDER() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(&k.Private.PublicKey)
}

// NewVerifyToken returns a fresh random 4-byte verify token.
func NewVerifyToken() ([]byte, error) {
	tok := make([]byte, 4)
	_, err := rand.Read(tok)
	return tok, err
}

// Decrypt performs the PKCS#1 v1.5 RSA decryption the client's encrypted
// payloads use.
func (k *KeyPair) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.Private, ciphertext)
}

// VerifyAndDecryptSecret checks that encryptedVerifyToken decrypts to
// expectedToken and, if so, decrypts and returns the shared secret.
func (k *KeyPair) VerifyAndDecryptSecret(encryptedSecret, encryptedVerifyToken, expectedToken []byte) ([]byte, error) {
	token, err := k.Decrypt(encryptedVerifyToken)
	if err != nil {
		return nil, err
	}
	if len(token) != len(expectedToken) || string(token) != string(expectedToken) {
		return nil, ErrBadVerifyToken
	}
	return k.Decrypt(encryptedSecret)
}

// ServerIDHash computes the legacy "server hash" used by some clients'
// session-server verification step: SHA-1 of serverID, the shared secret
// and the DER public key, in that order. It returns the raw 20-byte digest;
// formatting it as Java's signed hex digest is left to the caller.
// The core never calls out to Mojang itself (authentication against
// external identity providers is a spec.md Non-goal); this is exposed only
// so a caller-supplied login acceptor can perform that call if it wants to.
func ServerIDHash(serverID string, publicKeyDER, sharedSecret []byte) []byte {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	return h.Sum(nil)
}

// NewStreamCipherPair builds the AES-128-CFB8 encrypt/decrypt stream pair
// for a 16-byte shared secret.
func NewStreamCipherPair(sharedSecret []byte) (enc, dec cipher.Stream, err error) {
	return newCFB8Pair(sharedSecret)
}
