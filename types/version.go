package types

import (
	"github.com/pkg/errors"
)

const (
	// PDFLiteVersion is the current pdflite release.
	PDFLiteVersion = "0.1.0"

	// PDFLiteLongVersion is pdflite's signature, used in generated /Producer entries.
	PDFLiteLongVersion = "golang pdflite v" + PDFLiteVersion
)

// PDFVersion is a type for the internal representation of PDF versions.
type PDFVersion int

// Constants for all PDF versions up to v1.7.
const (
	V10 PDFVersion = iota
	V11
	V12
	V13
	V14
	V15
	V16
	V17
)

var versionStrings = [...]string{"1.0", "1.1", "1.2", "1.3", "1.4", "1.5", "1.6", "1.7"}

// Version returns the PDFVersion for a version string as found after the %PDF- header marker.
func Version(versionStr string) (PDFVersion, error) {
	for i, s := range versionStrings {
		if s == versionStr {
			return PDFVersion(i), nil
		}
	}
	return -1, errors.Errorf("pdflite: unsupported PDF version %q", versionStr)
}

// VersionString returns a string representation for a given PDFVersion.
func VersionString(version PDFVersion) string {
	if version < 0 || int(version) >= len(versionStrings) {
		return ""
	}
	return versionStrings[version]
}
