package types

import (
	"strings"
	"testing"
)

func TestLoadConfigurationOverridesDefaults(t *testing.T) {
	yml := `
lenientSyntax: false
validationMode: ValidationStrict
eol: EolCRLF
encryptKeyLength: 128
units: mm
paperSize: Letter
`
	cfg, err := LoadConfiguration(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	if cfg.LenientSyntax {
		t.Error("expected LenientSyntax false")
	}
	if cfg.ValidationMode != ValidationStrict {
		t.Error("expected ValidationStrict")
	}
	if cfg.Eol != EolCRLF {
		t.Error("expected EolCRLF")
	}
	if !cfg.EncryptUsing128BitKey {
		t.Error("expected 128 bit key")
	}
	if cfg.DefaultUnit != UnitMillimetres {
		t.Error("expected millimetres")
	}
	if cfg.DefaultPaperSize != PaperLetter {
		t.Error("expected Letter")
	}
}

func TestLoadConfigurationRejectsInvalidMode(t *testing.T) {
	yml := `validationMode: Bogus`
	if _, err := LoadConfiguration(strings.NewReader(yml)); err == nil {
		t.Fatal("expected error for invalid validationMode")
	}
}

func TestLoadConfigurationRejectsInvalidKeyLength(t *testing.T) {
	yml := `encryptKeyLength: 17`
	if _, err := LoadConfiguration(strings.NewReader(yml)); err == nil {
		t.Fatal("expected error for invalid encryptKeyLength")
	}
}
