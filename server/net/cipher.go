package net

import (
	"crypto/aes"
	"crypto/cipher"
)

// cfb8 implements AES-128-CFB8, the 8-bit-feedback stream cipher variant the
// Java-edition protocol requires (spec.md §9 "Stream cipher"): key = IV =
// the 16-byte shared secret, streamed continuously across frames rather
// than re-keyed per frame. The standard library's crypto/cipher CFB mode
// only implements a feedback segment equal to the block size (CFB128), so
// this is hand-rolled directly against the AES block cipher.
type cfb8 struct {
	block     cipher.Block
	iv        []byte
	encrypt   bool
	blockSize int
}

func newCFB8(block cipher.Block, iv []byte, encrypt bool) *cfb8 {
	buf := make([]byte, len(iv))
	copy(buf, iv)
	return &cfb8{block: block, iv: buf, encrypt: encrypt, blockSize: block.BlockSize()}
}

// newCFB8Pair builds the encrypt/decrypt stream pair for a shared secret,
// used as both the AES key and the initial IV per spec.md §4.2.
func newCFB8Pair(sharedSecret []byte) (enc, dec cipher.Stream, err error) {
	block, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, nil, err
	}
	return newCFB8(block, sharedSecret, true), newCFB8(block, sharedSecret, false), nil
}

// XORKeyStream implements cipher.Stream, encrypting or decrypting src into
// dst one byte at a time: each ciphertext byte becomes the next feedback
// input, so encryption and decryption must not be run concurrently on the
// same cfb8 instance (a Session owns one per direction, never shared).
func (c *cfb8) XORKeyStream(dst, src []byte) {
	var scratch [aes.BlockSize]byte
	for i := range src {
		c.block.Encrypt(scratch[:c.blockSize], c.iv)
		out := src[i] ^ scratch[0]

		copy(c.iv, c.iv[1:])
		if c.encrypt {
			c.iv[c.blockSize-1] = out
		} else {
			c.iv[c.blockSize-1] = src[i]
		}
		dst[i] = out
	}
}
