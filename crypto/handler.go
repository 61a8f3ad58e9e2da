package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/mechiko/pdflite/log"
	"github.com/pkg/errors"
)

// Handler is the standard security handler bound to one document's
// encryption parameters and derived file key.
type Handler struct {
	Info *Info
	Key  []byte
}

// Authenticate tries userpw then ownerpw against info, returning a
// ready-to-use Handler on success. Per 7.6.3.3, a correct owner
// password also grants full (unrestricted) access.
func Authenticate(userpw, ownerpw string, info *Info) (*Handler, error) {
	if info.R >= 5 {
		if ok, key, err := ValidateUserPasswordAES256(userpw, info); err != nil {
			return nil, err
		} else if ok {
			return &Handler{Info: info, Key: key}, nil
		}
		if ok, key, err := ValidateOwnerPasswordAES256(ownerpw, info); err != nil {
			return nil, err
		} else if ok {
			return &Handler{Info: info, Key: key}, nil
		}
		log.Info.Println("crypto: password authentication failed")
		return nil, errors.New("pdflite: crypto: invalid password")
	}

	if ok, key, err := ValidateUserPassword(userpw, info); err != nil {
		return nil, err
	} else if ok {
		return &Handler{Info: info, Key: key}, nil
	}
	if ok, key, err := ValidateOwnerPassword(ownerpw, info); err != nil {
		return nil, err
	} else if ok {
		return &Handler{Info: info, Key: key}, nil
	}

	log.Info.Println("crypto: password authentication failed")
	return nil, errors.New("pdflite: crypto: invalid password")
}

// NewHandlerForEncryption sets up a fresh Info and Handler for writing
// a newly encrypted document with the given passwords and permission
// bits. need256 selects AES-256 (R6); otherwise need128 selects R4 (RC4-128,
// or AES-128 when aes is set) and its absence selects RC4-40 (R2).
func NewHandlerForEncryption(userpw, ownerpw string, permissions int16, aes, need128, need256 bool, fileID []byte) (*Handler, *Info, error) {
	if need256 {
		return newHandlerAES256(userpw, ownerpw, permissions, fileID)
	}

	r, l := 2, 40
	if need128 {
		r, l = 4, 128
	}

	info := &Info{L: l, P: int(permissions), R: r, V: 1, Emd: true, ID: fileID, AES: aes}
	if r == 4 {
		info.V = 4
	}

	o, err := computeO(ownerpw, userpw, r, l)
	if err != nil {
		return nil, nil, err
	}
	info.O = o

	u, key, err := computeU(userpw, info)
	if err != nil {
		return nil, nil, err
	}
	info.U = u

	return &Handler{Info: info, Key: key}, info, nil
}

func newHandlerAES256(userpw, ownerpw string, permissions int16, fileID []byte) (*Handler, *Info, error) {
	info := &Info{L: 256, P: int(permissions), R: 6, V: 5, Emd: true, ID: fileID, AES: true}

	fileKey := make([]byte, 32)
	if _, err := rand.Read(fileKey); err != nil {
		return nil, nil, err
	}

	uValidationSalt := randBytes(8)
	uKeySalt := randBytes(8)
	upw := saslprep(userpw)

	uHash := computeHashR5R6(6, upw, uValidationSalt, nil)
	info.U = append(append(append([]byte{}, uHash...), uValidationSalt...), uKeySalt...)

	uik := computeHashR5R6(6, upw, uKeySalt, nil)
	ue, err := aesCBCNoPadEncrypt(uik, make([]byte, 16), fileKey)
	if err != nil {
		return nil, nil, err
	}
	info.UE = ue

	oValidationSalt := randBytes(8)
	oKeySalt := randBytes(8)
	opw := saslprep(ownerpw)
	if len(opw) == 0 {
		opw = upw
	}

	oHash := computeHashR5R6(6, opw, oValidationSalt, info.U)
	info.O = append(append(append([]byte{}, oHash...), oValidationSalt...), oKeySalt...)

	oik := computeHashR5R6(6, opw, oKeySalt, info.U)
	oe, err := aesCBCNoPadEncrypt(oik, make([]byte, 16), fileKey)
	if err != nil {
		return nil, nil, err
	}
	info.OE = oe

	return &Handler{Info: info, Key: fileKey}, info, nil
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func aesCBCNoPadEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}
