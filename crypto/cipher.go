package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"io"

	"github.com/mechiko/pdflite/log"
	"github.com/pkg/errors"
)

// objectKey derives the per-object RC4/AES-128 key from the file key
// (Algorithm 1, 7.6.2). AES-256 (R5/R6) skips this step entirely and
// encrypts every object directly with the file key.
func objectKey(fileKey []byte, objNr, genNr int, aesFilter bool) []byte {
	m := md5.New()

	b := make([]byte, 0, len(fileKey)+9)
	b = append(b, fileKey...)
	b = append(b, byte(objNr), byte(objNr>>8), byte(objNr>>16))
	b = append(b, byte(genNr), byte(genNr>>8))
	m.Write(b)

	if aesFilter {
		m.Write([]byte("sAlT"))
	}

	dk := m.Sum(nil)
	l := len(fileKey) + 5
	if l < 16 {
		dk = dk[:l]
	}
	return dk
}

// keyFor returns the key to use for an object: the per-object key for
// RC4/AES-128 (V<5), or the file key directly for AES-256 (V=5).
func keyFor(fileKey []byte, objNr, genNr int, info *Info) []byte {
	if info.V == 5 {
		return fileKey
	}
	return objectKey(fileKey, objNr, genNr, info.AES)
}

// EncryptBytes encrypts buf for the given object using info's configured cipher.
func EncryptBytes(buf []byte, objNr, genNr int, fileKey []byte, info *Info) ([]byte, error) {
	k := keyFor(fileKey, objNr, genNr, info)
	if info.AES || info.V == 5 {
		return encryptAESCBC(buf, k)
	}
	return rc4Stream(buf, k)
}

// DecryptBytes decrypts buf for the given object using info's configured cipher.
func DecryptBytes(buf []byte, objNr, genNr int, fileKey []byte, info *Info) ([]byte, error) {
	k := keyFor(fileKey, objNr, genNr, info)
	log.Trace.Printf("DecryptBytes: obj %d %d aes=%t v=%d\n", objNr, genNr, info.AES, info.V)
	if info.AES || info.V == 5 {
		return decryptAESCBC(buf, k)
	}
	return rc4Stream(buf, k)
}

func rc4Stream(buf, key []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if _, err := io.Copy(&b, &cipher.StreamReader{S: c, R: bytes.NewReader(buf)}); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func encryptAESCBC(b, key []byte) ([]byte, error) {
	l := len(b) % aes.BlockSize
	pad := aes.BlockSize - l
	b = append(append([]byte{}, b...), bytes.Repeat([]byte{byte(pad)}, pad)...)

	data := make([]byte, aes.BlockSize+len(b))
	iv := data[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	cb, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(cb, iv).CryptBlocks(data[aes.BlockSize:], b)

	return data, nil
}

func decryptAESCBC(b, key []byte) ([]byte, error) {
	if len(b) < aes.BlockSize {
		return nil, errors.New("pdflite: crypto: AES ciphertext too short")
	}
	if len(b)%aes.BlockSize != 0 {
		return nil, errors.New("pdflite: crypto: AES ciphertext not a multiple of block size")
	}

	cb, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := b[:aes.BlockSize]
	data := make([]byte, len(b)-aes.BlockSize)
	cipher.NewCBCDecrypter(cb, iv).CryptBlocks(data, b[aes.BlockSize:])

	// Remove PKCS#7-style padding. Some PDF writers omit it.
	if n := len(data); n > 0 && int(data[n-1]) <= aes.BlockSize {
		data = data[:n-int(data[n-1])]
	}

	return data, nil
}
