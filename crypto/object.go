package crypto

import (
	"github.com/mechiko/pdflite/types"
)

// EncryptDeepObject recurses into obj and encrypts every string literal
// found, leaving indirect references untouched (strings nested inside
// a referenced object are handled when that object is itself visited).
func EncryptDeepObject(obj types.PDFObject, objNr, genNr int, fileKey []byte, info *Info) (types.PDFObject, error) {
	return transformDeepObject(obj, objNr, genNr, fileKey, info, EncryptBytes)
}

// DecryptDeepObject is the inverse of EncryptDeepObject.
func DecryptDeepObject(obj types.PDFObject, objNr, genNr int, fileKey []byte, info *Info) (types.PDFObject, error) {
	return transformDeepObject(obj, objNr, genNr, fileKey, info, DecryptBytes)
}

type byteTransform func([]byte, int, int, []byte, *Info) ([]byte, error)

func transformDeepObject(obj types.PDFObject, objNr, genNr int, fileKey []byte, info *Info, f byteTransform) (types.PDFObject, error) {
	switch o := obj.(type) {
	case types.PDFIndirectRef:
		return o, nil

	case types.PDFStringLiteral:
		out, err := f([]byte(o.Value()), objNr, genNr, fileKey, info)
		if err != nil {
			return nil, err
		}
		return types.PDFStringLiteral(out), nil

	case types.PDFHexLiteral:
		raw, err := o.Bytes()
		if err != nil {
			return nil, err
		}
		out, err := f(raw, objNr, genNr, fileKey, info)
		if err != nil {
			return nil, err
		}
		return types.NewHexLiteral(out), nil

	case types.PDFArray:
		for i, v := range o {
			if v == nil {
				continue
			}
			nv, err := transformDeepObject(v, objNr, genNr, fileKey, info, f)
			if err != nil {
				return nil, err
			}
			o[i] = nv
		}
		return o, nil

	case types.PDFDict:
		for _, k := range o.Keys() {
			v, _ := o.Find(k)
			if v == nil {
				continue
			}
			nv, err := transformDeepObject(v, objNr, genNr, fileKey, info, f)
			if err != nil {
				return nil, err
			}
			o.Update(k, nv)
		}
		return o, nil

	case types.PDFStreamDict:
		nd, err := transformDeepObject(o.PDFDict, objNr, genNr, fileKey, info, f)
		if err != nil {
			return nil, err
		}
		o.PDFDict = nd.(types.PDFDict)
		return o, nil

	default:
		return obj, nil
	}
}
