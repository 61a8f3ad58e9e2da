// Package crypto implements the standard security handler (7.6.4): RC4
// and AES encryption for revisions 2 through 6, password validation,
// and per-object key derivation.
package crypto

import (
	"crypto/md5"
	"crypto/rc4"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/mechiko/pdflite/types"
	"github.com/pkg/errors"
)

var (
	pad = []byte{
		0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
		0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
	}
)

// Info wraps the standard security handler's encryption parameters, as
// parsed from, or about to be written to, an /Encrypt dictionary.
type Info struct {
	O, U   []byte // R2-R4: 32 bytes. R5/R6: 48 bytes (hash||validationSalt||keySalt).
	OE, UE []byte // R5/R6 only: AES-256 wrapped file key, 32 bytes each.
	Perms  []byte // R6 only: encrypted /Perms entry, 16 bytes.
	L      int    // key length in bits
	P      int    // permission flags
	R      int    // security handler revision: 2,3,4,5,6
	V      int    // algorithm version: 1,2,4,5
	Emd    bool   // EncryptMetadata
	ID     []byte // first element of the file /ID
	AES    bool   // stream/string crypt filter is AESV2/AESV3 rather than RC4/V2
}

// NewEncryptDict builds an /Encrypt dictionary for a newly written
// document using the standard security handler. AES-256 (R6) is used
// when need256BitKey is set; otherwise need128BitKey selects between
// AES-128/RC4-128 (R4) and RC4-40 (R2).
func NewEncryptDict(needAES, need128BitKey, need256BitKey bool, permissions int16) *types.PDFDict {
	d := types.NewPDFDict()
	d.Insert("Filter", types.PDFName("Standard"))

	switch {
	case need256BitKey:
		d.Insert("R", types.PDFInteger(6))
		d.Insert("V", types.PDFInteger(5))
		d.Insert("Length", types.PDFInteger(256))
	case need128BitKey:
		d.Insert("R", types.PDFInteger(4))
		d.Insert("V", types.PDFInteger(4))
		d.Insert("Length", types.PDFInteger(128))
	default:
		d.Insert("R", types.PDFInteger(2))
		d.Insert("V", types.PDFInteger(1))
	}

	d.Insert("P", types.PDFInteger(permissions))

	if need128BitKey || need256BitKey {
		d.Insert("StmF", types.PDFName("StdCF"))
		d.Insert("StrF", types.PDFName("StdCF"))

		cf := types.NewPDFDict()
		cf.Insert("AuthEvent", types.PDFName("DocOpen"))
		switch {
		case need256BitKey:
			cf.Insert("CFM", types.PDFName("AESV3"))
			cf.Insert("Length", types.PDFInteger(32))
		case needAES:
			cf.Insert("CFM", types.PDFName("AESV2"))
			cf.Insert("Length", types.PDFInteger(16))
		default:
			cf.Insert("CFM", types.PDFName("V2"))
			cf.Insert("Length", types.PDFInteger(16))
		}

		cfDict := types.NewPDFDict()
		cfDict.Insert("StdCF", cf)
		d.Insert("CF", cfDict)
	}

	placeholder32 := "0000000000000000000000000000000000000000000000000000000000000000"
	if need256BitKey {
		placeholder48 := placeholder32 + placeholder32[:32]
		d.Insert("U", types.PDFHexLiteral(placeholder48))
		d.Insert("O", types.PDFHexLiteral(placeholder48))
		d.Insert("UE", types.PDFHexLiteral(placeholder32))
		d.Insert("OE", types.PDFHexLiteral(placeholder32))
		d.Insert("Perms", types.PDFHexLiteral(placeholder32[:32]))
	} else {
		d.Insert("U", types.PDFHexLiteral(placeholder32))
		d.Insert("O", types.PDFHexLiteral(placeholder32))
	}

	return &d
}

// SupportedCFEntry reports whether a /CF sub-dictionary's crypt filter
// method is one pdflite implements, and whether it selects AES.
func SupportedCFEntry(d *types.PDFDict) (aes bool, err error) {
	cfm := d.NameEntry("CFM")
	if cfm == nil {
		return false, errors.New("pdflite: crypto: missing \"CFM\"")
	}
	switch *cfm {
	case "V2":
		return false, nil
	case "AESV2", "AESV3":
		return true, nil
	default:
		return false, errors.Errorf("pdflite: crypto: unsupported CFM %q", *cfm)
	}
}

// SupportedEncryption parses and validates dict into an Info, rejecting
// anything pdflite's standard security handler doesn't implement.
func SupportedEncryption(dict *types.PDFDict, fileID []byte) (*Info, error) {
	filter := dict.NameEntry("Filter")
	if filter == nil || *filter != "Standard" {
		return nil, errors.New("pdflite: crypto: unsupported encryption, Filter must be Standard")
	}
	if dict.NameEntry("SubFilter") != nil {
		return nil, errors.New("pdflite: crypto: SubFilter not supported")
	}

	v := dict.IntEntry("V")
	if v == nil || (*v != 1 && *v != 2 && *v != 4 && *v != 5) {
		return nil, errors.New("pdflite: crypto: \"V\" must be one of 1,2,4,5")
	}

	r := dict.IntEntry("R")
	if r == nil || (*r < 2 || *r > 6) {
		return nil, errors.New("pdflite: crypto: \"R\" must be one of 2,3,4,5,6")
	}

	l := 40
	if lp := dict.IntEntry("Length"); lp != nil {
		l = *lp
	}

	aes := false
	if *v == 4 || *v == 5 {
		cfDict := dict.DictEntry("CF")
		stmf := dict.NameEntry("StmF")
		if cfDict != nil && stmf != nil && *stmf != "Identity" {
			cf := cfDict.DictEntry(*stmf)
			if cf == nil {
				return nil, errors.Errorf("pdflite: crypto: CF entry %q missing", *stmf)
			}
			a, err := SupportedCFEntry(cf)
			if err != nil {
				return nil, err
			}
			aes = a
		}
	}

	p := dict.IntEntry("P")
	if p == nil {
		return nil, errors.New("pdflite: crypto: required entry \"P\" missing")
	}

	encMeta := true
	if emd := dict.BooleanEntry("EncryptMetadata"); emd != nil {
		encMeta = *emd
	}

	info := &Info{L: l, P: *p, R: *r, V: *v, Emd: encMeta, ID: fileID, AES: aes}
	return info, nil
}

func fileID() types.PDFHexLiteral {
	h := md5.New()
	h.Write([]byte(time.Now().String()))
	h.Write([]byte(strconv.Itoa(int(time.Now().UnixNano()))))
	return types.PDFHexLiteral(hex.EncodeToString(h.Sum(nil)))
}

// ID generates the /ID array for a newly written document.
func ID() types.PDFArray {
	fid := fileID()
	return types.PDFArray{fid, fid}
}

func rc4XOR(key, b []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	c.XORKeyStream(out, b)
	return out, nil
}
