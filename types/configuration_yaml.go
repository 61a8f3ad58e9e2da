package types

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// yamlConfiguration mirrors the subset of Configuration that is safe to
// externalize into a config file: passwords and in-memory-only state
// (MaxRecursionDepth, CacheSize) stay Go-side.
type yamlConfiguration struct {
	LenientSyntax     bool   `yaml:"lenientSyntax"`
	Reader15          bool   `yaml:"reader15"`
	DecodeAllStreams  bool   `yaml:"decodeAllStreams"`
	ValidationMode    string `yaml:"validationMode"`
	Eol               string `yaml:"eol"`
	WriteObjectStream bool   `yaml:"writeObjectStream"`
	WriteXRefStream   bool   `yaml:"writeXRefStream"`
	EncryptUsingAES   bool   `yaml:"encryptUsingAES"`
	EncryptKeyLength  int    `yaml:"encryptKeyLength"`
	Permissions       int    `yaml:"permissions"`
	Units             string `yaml:"units"`
	PaperSize         string `yaml:"paperSize"`
}

// LoadConfiguration reads a YAML configuration file and applies it on
// top of NewDefaultConfiguration, the way the teacher's parseConfigFile
// seeds loadedDefaultConfig from ~/.config/pdfcpu/config.yml.
func LoadConfiguration(r io.Reader) (*Configuration, error) {
	bb, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "pdflite: types: reading configuration")
	}

	def := NewDefaultConfiguration()
	c := yamlConfiguration{
		LenientSyntax:     def.LenientSyntax,
		Reader15:          def.Reader15,
		DecodeAllStreams:  def.DecodeAllStreams,
		WriteObjectStream: def.WriteObjectStream,
		WriteXRefStream:   def.WriteXRefStream,
		EncryptUsingAES:   def.EncryptUsingAES,
	}
	if err := yaml.Unmarshal(bb, &c); err != nil {
		return nil, errors.Wrap(err, "pdflite: types: parsing configuration yaml")
	}

	if c.ValidationMode != "" && !memberOf(c.ValidationMode, "ValidationStrict", "ValidationRelaxed") {
		return nil, errors.Errorf("pdflite: types: invalid validationMode %q", c.ValidationMode)
	}
	if c.Eol != "" && !memberOf(c.Eol, "EolLF", "EolCR", "EolCRLF") {
		return nil, errors.Errorf("pdflite: types: invalid eol %q", c.Eol)
	}
	if c.Units != "" && !memberOf(c.Units, "points", "inches", "cm", "mm") {
		return nil, errors.Errorf("pdflite: types: invalid units %q", c.Units)
	}
	if c.EncryptKeyLength != 0 && !intMemberOf(c.EncryptKeyLength, 40, 128, 256) {
		return nil, errors.Errorf("pdflite: types: invalid encryptKeyLength %d", c.EncryptKeyLength)
	}

	cfg := NewDefaultConfiguration()
	cfg.LenientSyntax = c.LenientSyntax
	cfg.Reader15 = c.Reader15
	cfg.DecodeAllStreams = c.DecodeAllStreams
	cfg.WriteObjectStream = c.WriteObjectStream
	cfg.WriteXRefStream = c.WriteXRefStream
	cfg.EncryptUsingAES = c.EncryptUsingAES
	if c.EncryptKeyLength != 0 {
		cfg.EncryptUsing128BitKey = c.EncryptKeyLength == 128
	}
	if c.Permissions != 0 {
		cfg.UserAccessPermissions = int16(c.Permissions)
	}

	switch c.ValidationMode {
	case "ValidationStrict":
		cfg.ValidationMode = ValidationStrict
	case "ValidationRelaxed":
		cfg.ValidationMode = ValidationRelaxed
	}

	switch c.Eol {
	case "EolLF":
		cfg.Eol = EolLF
	case "EolCR":
		cfg.Eol = EolCR
	case "EolCRLF":
		cfg.Eol = EolCRLF
	}

	switch c.Units {
	case "inches":
		cfg.DefaultUnit = UnitInches
	case "cm":
		cfg.DefaultUnit = UnitCentimetres
	case "mm":
		cfg.DefaultUnit = UnitMillimetres
	case "points":
		cfg.DefaultUnit = UnitPoints
	}

	switch PaperSize(c.PaperSize) {
	case PaperA4, PaperLetter, PaperLegal:
		cfg.DefaultPaperSize = PaperSize(c.PaperSize)
	}

	return cfg, nil
}

// LoadConfigurationFile opens path and delegates to LoadConfiguration.
func LoadConfigurationFile(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "pdflite: types: opening configuration file")
	}
	defer f.Close()
	return LoadConfiguration(f)
}

func memberOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

func intMemberOf(v int, candidates ...int) bool {
	for _, c := range candidates {
		if v == c {
			return true
		}
	}
	return false
}
