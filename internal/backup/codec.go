package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/cypher/internal/crypto"
)

// ErrDecryptionFailed is returned for a wrong passphrase or a damaged file.
var ErrDecryptionFailed = crypto.ErrDecryptionFailed

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown backup format %q", s)
}

// Extension is the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode serializes snap. Nil collections are written as empty lists.
func Encode(snap *Snapshot, format Format) ([]byte, error) {
	snap.normalize()
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nil, fmt.Errorf("encode yaml snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml snapshot: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json snapshot: %w", err)
		}
		return data, nil
	}
}

// Decode parses a snapshot. Missing collections decode as empty.
func Decode(data []byte, format Format) (*Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode json snapshot: %w", err)
		}
	}
	if snap.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	snap.normalize()
	return &snap, nil
}

// DetectFormat guesses the format of an unsealed document.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// EncodeSealed encodes snap and, when passphrase is set, seals the result.
func EncodeSealed(snap *Snapshot, format Format, passphrase string) ([]byte, error) {
	data, err := Encode(snap, format)
	if err != nil {
		return nil, err
	}
	if passphrase == "" {
		return data, nil
	}
	return crypto.Seal(passphrase, data)
}

// DecodeAny opens sealed data with passphrase, detects the format and decodes.
func DecodeAny(data []byte, passphrase string) (*Snapshot, error) {
	if crypto.IsSealed(data) {
		if passphrase == "" {
			return nil, fmt.Errorf("backup is sealed: %w", crypto.ErrEmptyPassphrase)
		}
		opened, err := crypto.Open(passphrase, data)
		if err != nil {
			return nil, err
		}
		data = opened
	}
	return Decode(data, DetectFormat(data))
}
