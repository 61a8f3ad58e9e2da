package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"

	"github.com/pkg/errors"
	"golang.org/x/text/secure/precis"
	"golang.org/x/text/unicode/norm"
)

// fileEncryptionKey derives the file encryption key from the user
// password for revisions 2-4 (Algorithm 2, 7.6.3.3).
func fileEncryptionKey(userpw string, info *Info) []byte {
	pw := pad32(userpw)

	h := md5.New()
	h.Write(pw)
	h.Write(info.O)

	p := uint32(info.P)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(info.ID)

	if info.R == 4 && !info.Emd {
		h.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}

	key := h.Sum(nil)

	if info.R >= 3 {
		for i := 0; i < 50; i++ {
			h.Reset()
			h.Write(key[:info.L/8])
			key = h.Sum(nil)
		}
		key = key[:info.L/8]
	} else {
		key = key[:5]
	}

	return key
}

// ownerEncryptionKey derives the RC4 key used to wrap/unwrap the owner
// password's obfuscation of the user password (Algorithm 3 a-d).
func ownerEncryptionKey(ownerpw, userpw string, r, l int) []byte {
	pw := []byte(ownerpw)
	if len(pw) == 0 {
		pw = []byte(userpw)
	}
	pw = pad32(string(pw))

	h := md5.New()
	h.Write(pw)
	key := h.Sum(nil)

	if r >= 3 {
		for i := 0; i < 50; i++ {
			h.Reset()
			h.Write(key)
			key = h.Sum(nil)
		}
		key = key[:l/8]
	} else {
		key = key[:5]
	}

	return key
}

func pad32(s string) []byte {
	p := []byte(s)
	if len(p) >= 32 {
		return p[:32]
	}
	out := make([]byte, 32)
	n := copy(out, p)
	copy(out[n:], pad)
	return out
}

func rc4Cascade(key, b []byte, r int) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)

	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	c.XORKeyStream(out, out)

	if r >= 3 {
		for i := 1; i <= 19; i++ {
			ki := make([]byte, len(key))
			copy(ki, key)
			for j := range ki {
				ki[j] ^= byte(i)
			}
			c, err := rc4.NewCipher(ki)
			if err != nil {
				return nil, err
			}
			c.XORKeyStream(out, out)
		}
	}

	return out, nil
}

// computeO computes the /O entry (Algorithm 3).
func computeO(ownerpw, userpw string, r, l int) ([]byte, error) {
	key := ownerEncryptionKey(ownerpw, userpw, r, l)
	return rc4Cascade(key, pad32(userpw), r)
}

// computeU computes the /U entry and the file key (Algorithm 4/5).
func computeU(userpw string, info *Info) (u, key []byte, err error) {
	key = fileEncryptionKey(userpw, info)

	if info.R == 2 {
		u, err = rc4Cascade(key, pad, 2)
		return u, key, err
	}

	h := md5.New()
	h.Write(pad)
	h.Write(info.ID)
	digest := h.Sum(nil)

	u, err = rc4Cascade(key, digest, info.R)
	if err != nil {
		return nil, nil, err
	}
	if len(u) < 32 {
		u = append(u, make([]byte, 32-len(u))...)
	}
	return u, key, nil
}

// ValidateUserPassword reports whether userpw opens the document,
// returning the derived file key on success.
func ValidateUserPassword(userpw string, info *Info) (bool, []byte, error) {
	u, key, err := computeU(userpw, info)
	if err != nil {
		return false, nil, err
	}
	n := 32
	if len(info.U) < n {
		n = len(info.U)
	}
	match := true
	for i := 0; i < n; i++ {
		if u[i] != info.U[i] {
			match = false
			break
		}
	}
	return match, key, nil
}

// ValidateOwnerPassword reports whether ownerpw is the owner password,
// returning the derived file key on success.
func ValidateOwnerPassword(ownerpw string, info *Info) (bool, []byte, error) {
	key := ownerEncryptionKey(ownerpw, "", info.R, info.L)

	upw := make([]byte, len(info.O))
	copy(upw, info.O)

	if info.R == 2 {
		c, err := rc4.NewCipher(key)
		if err != nil {
			return false, nil, err
		}
		c.XORKeyStream(upw, upw)
	} else {
		for i := 19; i >= 0; i-- {
			ki := make([]byte, len(key))
			copy(ki, key)
			for j := range ki {
				ki[j] ^= byte(i)
			}
			c, err := rc4.NewCipher(ki)
			if err != nil {
				return false, nil, err
			}
			c.XORKeyStream(upw, upw)
		}
	}

	ok, k, err := ValidateUserPassword(string(upw), info)
	return ok, k, err
}

// --- AES-256 (R5/R6, ISO 32000-2 Algorithm 2.A/2.B) ---

// saslprep normalizes a password per RFC 4013, as required before
// hashing for AES-256 (R6). Malformed UTF-8 falls back to the raw
// bytes, matching Acrobat's lenient behavior for legacy passwords.
func saslprep(pw string) []byte {
	s, err := precis.OpaqueString.String(norm.NFC.String(pw))
	if err != nil {
		return []byte(pw)
	}
	return []byte(s)
}

// hashR6 implements ISO 32000-2 Algorithm 2.B: a SHA-256 round
// followed by at least 64 additional AES-128-CBC/SHA-{256,384,512}
// strengthening rounds (more until the last byte of the round's output is
// at most round-32), used for R6 only (R5 uses a bare SHA-256).
func hashR6(password, salt, udata []byte) []byte {
	input := append(append([]byte{}, password...), salt...)
	input = append(input, udata...)

	k := sha256sum(input)

	for round := 0; ; round++ {
		k1 := make([]byte, 0, 64*(len(password)+len(k)+len(udata)))
		for i := 0; i < 64; i++ {
			k1 = append(k1, password...)
			k1 = append(k1, k...)
			k1 = append(k1, udata...)
		}

		block, err := aes.NewCipher(k[:16])
		if err != nil {
			return k
		}
		iv := make([]byte, 16)
		copy(iv, k[16:32])
		mode := cipher.NewCBCEncrypter(block, iv)

		e := make([]byte, len(k1))
		mode.CryptBlocks(e, k1)

		mod := sumFirst16(e) % 3
		switch mod {
		case 0:
			k = sha256sum(e)
		case 1:
			k = sha384sum(e)
		case 2:
			k = sha512sum(e)
		}

		if round >= 63 && int(e[len(e)-1]) <= round-32 {
			break
		}
	}

	return k[:32]
}

func sumFirst16(b []byte) int {
	sum := 0
	n := 16
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += int(b[i])
	}
	return sum
}

func sha256sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func sha384sum(b []byte) []byte {
	h := sha512.Sum384(b)
	return h[:]
}

func sha512sum(b []byte) []byte {
	h := sha512.Sum512(b)
	return h[:]
}

// computeHashR5R6 dispatches to plain SHA-256 (R5) or the iterated
// Algorithm 2.B (R6).
func computeHashR5R6(r int, password, salt, udata []byte) []byte {
	if r == 5 {
		return sha256sum(append(append(append([]byte{}, password...), salt...), udata...))
	}
	return hashR6(password, salt, udata)
}

// ValidateUserPasswordAES256 validates userpw against a R5/R6 /U entry
// and unwraps the AES-256 file key from /UE (ISO 32000-2 Algorithm 2.A).
func ValidateUserPasswordAES256(userpw string, info *Info) (bool, []byte, error) {
	pw := saslprep(userpw)
	if len(info.U) < 48 {
		return false, nil, errors.New("pdflite: crypto: /U entry too short")
	}
	hash := info.U[:32]
	validationSalt := info.U[32:40]
	keySalt := info.U[40:48]

	if !bytesEqual(computeHashR5R6(info.R, pw, validationSalt, nil), hash) {
		return false, nil, nil
	}

	ik := computeHashR5R6(info.R, pw, keySalt, nil)
	key, err := aesCBCNoPadDecrypt(ik, make([]byte, 16), info.UE)
	if err != nil {
		return false, nil, err
	}
	return true, key, nil
}

// ValidateOwnerPasswordAES256 validates ownerpw against a R5/R6 /O
// entry and unwraps the AES-256 file key from /OE.
func ValidateOwnerPasswordAES256(ownerpw string, info *Info) (bool, []byte, error) {
	pw := saslprep(ownerpw)
	if len(info.O) < 48 {
		return false, nil, errors.New("pdflite: crypto: /O entry too short")
	}
	hash := info.O[:32]
	validationSalt := info.O[32:40]
	keySalt := info.O[40:48]

	if !bytesEqual(computeHashR5R6(info.R, pw, validationSalt, info.U), hash) {
		return false, nil, nil
	}

	ik := computeHashR5R6(info.R, pw, keySalt, info.U)
	key, err := aesCBCNoPadDecrypt(ik, make([]byte, 16), info.OE)
	if err != nil {
		return false, nil, err
	}
	return true, key, nil
}

func aesCBCNoPadDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

