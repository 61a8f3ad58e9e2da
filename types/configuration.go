package types

const (
	// ValidationStrict ensures 100% compliance with the spec (ISO 32000-1:2008).
	ValidationStrict = 0

	// ValidationRelaxed tolerates frequently encountered real-world deviations.
	ValidationRelaxed = 1

	// PermissionsAll enables all user access permission bits.
	PermissionsAll int16 = -1 // 0xFFFF

	// PermissionsNone disables all user access permission bits.
	PermissionsNone int16 = -3901 // 0xF0C3

	// DefaultCacheSize is the object cache capacity used when Configuration.CacheSize is 0.
	DefaultCacheSize = 1024

	// DefaultMaxRecursionDepth is the value EffectiveMaxRecursionDepth
	// reports when Configuration.MaxRecursionDepth is 0.
	DefaultMaxRecursionDepth = 50
)

// Unit is a physical length unit used for page geometry defaults.
type Unit int

// Supported units.
const (
	UnitPoints Unit = iota
	UnitInches
	UnitCentimetres
	UnitMillimetres
)

// PaperSize names a standard page dimension preset used by the writer
// when creating new pages that don't inherit a MediaBox.
type PaperSize string

// Common paper size presets.
const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "Letter"
	PaperLegal  PaperSize = "Legal"
)

// Configuration governs reader leniency and writer defaults for a document.
type Configuration struct {
	// LenientSyntax tolerates malformed but recoverable constructs
	// (bad xref offsets, missing whitespace, truncated trailers)
	// instead of aborting the read with a SyntaxError.
	LenientSyntax bool

	// CollectWarnings accumulates non-fatal parse deviations instead
	// of discarding them, for callers that want a lint-style report.
	CollectWarnings bool

	// CacheSize bounds the LRU object cache's entry count. 0 selects DefaultCacheSize.
	CacheSize int

	// MaxRecursionDepth is a recursion bound carried with the
	// configuration; 0 selects DefaultMaxRecursionDepth. No reader code
	// consults it: the page-tree walk stops at its own fixed depth of
	// 256, and reference cycles are caught by the object loader's
	// in-progress set.
	MaxRecursionDepth int

	// Reader15 enables PDF 1.5+ processing: object streams, xref
	// streams, and hybrid-reference files.
	Reader15 bool

	// DecodeAllStreams forces every stream (fonts, images, content) to
	// be decoded eagerly, mainly useful for diagnostics and testing.
	DecodeAllStreams bool

	// ValidationMode selects strict or relaxed structural validation.
	ValidationMode int

	// Eol is the end-of-line sequence used when writing.
	Eol string

	// WriteObjectStream turns on object-stream generation for new,
	// non-stream indirect objects. Object streams are written only when
	// WriteXRefStream is also set and the header version is 1.5 or later.
	WriteObjectStream bool

	// WriteXRefStream switches between a classical xref table (<=1.4)
	// and a cross-reference stream (>=1.5) on write.
	WriteXRefStream bool

	// UserPW and OwnerPW are the passwords used to open and encrypt a document.
	UserPW  string
	OwnerPW string

	// EncryptUsingAES selects AES (true) over RC4 (false) for new encryption.
	EncryptUsingAES bool

	// EncryptUsing128BitKey selects a 128 bit key (true) over a 40 bit key (false).
	EncryptUsing128BitKey bool

	// UserAccessPermissions are the permission bits applied on encrypt, see Table 22.
	UserAccessPermissions int16

	// DefaultUnit and DefaultPaperSize seed MediaBox geometry for pages created without one.
	DefaultUnit      Unit
	DefaultPaperSize PaperSize
}

// NewDefaultConfiguration returns pdflite's default configuration.
func NewDefaultConfiguration() *Configuration {
	return &Configuration{
		LenientSyntax:         true,
		CollectWarnings:       false,
		CacheSize:             DefaultCacheSize,
		MaxRecursionDepth:     DefaultMaxRecursionDepth,
		Reader15:              true,
		DecodeAllStreams:      false,
		ValidationMode:        ValidationRelaxed,
		Eol:                   EolLF,
		WriteObjectStream:     true,
		WriteXRefStream:       true,
		EncryptUsingAES:       true,
		EncryptUsing128BitKey: true,
		UserAccessPermissions: PermissionsNone,
		DefaultUnit:           UnitPoints,
		DefaultPaperSize:      PaperA4,
	}
}

// ValidationModeString returns a string rep for the validation mode in effect.
func (c *Configuration) ValidationModeString() string {
	if c.ValidationMode == ValidationStrict {
		return "strict"
	}
	if c.ValidationMode == ValidationRelaxed {
		return "relaxed"
	}
	return ""
}

// SetValidationStrict sets strict validation.
func (c *Configuration) SetValidationStrict() {
	c.ValidationMode = ValidationStrict
}

// SetValidationRelaxed sets relaxed validation.
func (c *Configuration) SetValidationRelaxed() {
	c.ValidationMode = ValidationRelaxed
}

// EffectiveCacheSize returns CacheSize, or DefaultCacheSize if unset.
func (c *Configuration) EffectiveCacheSize() int {
	if c.CacheSize <= 0 {
		return DefaultCacheSize
	}
	return c.CacheSize
}

// EffectiveMaxRecursionDepth returns MaxRecursionDepth, or DefaultMaxRecursionDepth if unset.
func (c *Configuration) EffectiveMaxRecursionDepth() int {
	if c.MaxRecursionDepth <= 0 {
		return DefaultMaxRecursionDepth
	}
	return c.MaxRecursionDepth
}
