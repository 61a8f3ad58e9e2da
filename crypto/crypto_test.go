package crypto

import (
	"bytes"
	"testing"
)

// TestRC4R3RoundTrip implements §8.7: given a user and owner password and
// a permission set, encrypting then decrypting a string/stream payload
// under RC4-128 R3 recovers the original bytes, and the resulting Info
// authenticates against both passwords.
func TestRC4R3RoundTrip(t *testing.T) {
	fileID := []byte("0123456789ABCDEF")

	info := &Info{L: 128, P: -4, R: 3, V: 2, Emd: true, ID: fileID, AES: false}

	o, err := computeO("owner", "user", info.R, info.L)
	if err != nil {
		t.Fatalf("computeO: %v", err)
	}
	info.O = o

	u, fileKey, err := computeU("user", info)
	if err != nil {
		t.Fatalf("computeU: %v", err)
	}
	info.U = u
	handler := &Handler{Info: info, Key: fileKey}

	plaintext := []byte("Secret content stream bytes, not a multiple of 16.")

	ciphertext, err := EncryptBytes(plaintext, 7, 0, handler.Key, info)
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext, RC4 keystream not applied")
	}

	decrypted, err := DecryptBytes(ciphertext, 7, 0, handler.Key, info)
	if err != nil {
		t.Fatalf("DecryptBytes: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("round trip = %q, want %q", decrypted, plaintext)
	}

	// The standard validation step: authenticating with the correct user
	// and owner passwords must both succeed and derive the same file key.
	userHandler, err := Authenticate("user", "", info)
	if err != nil {
		t.Fatalf("Authenticate(user): %v", err)
	}
	if !bytes.Equal(userHandler.Key, handler.Key) {
		t.Fatal("user-password authentication derived a different file key")
	}

	ownerHandler, err := Authenticate("", "owner", info)
	if err != nil {
		t.Fatalf("Authenticate(owner): %v", err)
	}
	if !bytes.Equal(ownerHandler.Key, handler.Key) {
		t.Fatal("owner-password authentication derived a different file key")
	}

	if _, err := Authenticate("wrong", "wrong", info); err == nil {
		t.Fatal("expected authentication failure for wrong passwords")
	}
}

// TestObjectKeyDomainSeparation implements §8.8: deriving the per-object
// key (Algorithm 1, 7.6.2) from the same file key but different (obj, gen)
// pairs must produce distinct keys, so that encrypting identical plaintext
// in two different objects never reuses the same RC4/AES-128 keystream.
func TestObjectKeyDomainSeparation(t *testing.T) {
	fileKey := bytes.Repeat([]byte{0x42}, 16)

	k1 := objectKey(fileKey, 1, 0, true)
	k2 := objectKey(fileKey, 2, 0, true)
	k3 := objectKey(fileKey, 1, 1, true)

	if bytes.Equal(k1, k2) {
		t.Fatal("objectKey(objNr=1) == objectKey(objNr=2), no domain separation across objects")
	}
	if bytes.Equal(k1, k3) {
		t.Fatal("objectKey(genNr=0) == objectKey(genNr=1), no domain separation across generations")
	}

	// Encrypting the same plaintext for two different objects under AES
	// must not reuse the derived key.
	info := &Info{R: 4, V: 4, L: 128, AES: true}
	plaintext := bytes.Repeat([]byte{0xAB}, 32)

	c1, err := EncryptBytes(plaintext, 1, 0, fileKey, info)
	if err != nil {
		t.Fatalf("EncryptBytes obj 1: %v", err)
	}
	d1, err := DecryptBytes(c1, 1, 0, fileKey, info)
	if err != nil {
		t.Fatalf("DecryptBytes obj 1: %v", err)
	}
	if !bytes.Equal(d1, plaintext) {
		t.Fatalf("AES round trip obj 1 = %x, want %x", d1, plaintext)
	}

	c2, err := EncryptBytes(plaintext, 2, 0, fileKey, info)
	if err != nil {
		t.Fatalf("EncryptBytes obj 2: %v", err)
	}
	d2, err := DecryptBytes(c2, 2, 0, fileKey, info)
	if err != nil {
		t.Fatalf("DecryptBytes obj 2: %v", err)
	}
	if !bytes.Equal(d2, plaintext) {
		t.Fatalf("AES round trip obj 2 = %x, want %x", d2, plaintext)
	}

	// Decrypting obj 1's ciphertext with obj 2's key must not recover the
	// original plaintext, confirming the two objects are not interchangeable.
	if wrong, err := DecryptBytes(c1, 2, 0, fileKey, info); err == nil && bytes.Equal(wrong, plaintext) {
		t.Fatal("decrypting obj 1's ciphertext under obj 2's derived key still recovered the plaintext")
	}
}
