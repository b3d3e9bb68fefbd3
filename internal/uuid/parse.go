package uuid

import (
	"encoding/hex"
	"fmt"
)

// Parse decodes a GUID's UTF-8 text form back into its 16 raw bytes, without
// using fmt.Sscanf or a regexp, matching Format's own allocation-free style.
// It accepts all five canonical textual forms:
//
//	N  32e42f16b6cc4d5b95f5d403c4befd3d
//	D  82e42f16-b6cc-4d5b-95f5-d403c4befd3d  (Format's own output)
//	B  {82e42f16-b6cc-4d5b-95f5-d403c4befd3d}
//	P  (82e42f16-b6cc-4d5b-95f5-d403c4befd3d)
//	X  {0x82e42f16,0xb6cc,0x4d5b,{0x95,0xf5,0xd4,0x03,0xc4,0xbe,0xfd,0x3d}}
//
// Malformed input is rejected byte-by-byte; no well-formed prefix of a valid
// form is treated as valid.
func Parse(s string) ([16]byte, error) {
	switch len(s) {
	case 32:
		return parseN(s)
	case 36:
		return parseD(s)
	case 38:
		switch {
		case s[0] == '{' && s[37] == '}':
			return parseD(s[1:37])
		case s[0] == '(' && s[37] == ')':
			return parseD(s[1:37])
		}
	case 68:
		if s[0] == '{' {
			return parseX(s)
		}
	}
	var out [16]byte
	return out, fmt.Errorf("uuid: unrecognized GUID text form %q", s)
}

// ParseBinary validates and copies the 16-byte binary form: the raw bytes a
// UUID value already holds, accepted here so every form spec.md §4.I names
// has one parsing entry point.
func ParseBinary(b []byte) ([16]byte, error) {
	var out [16]byte
	if len(b) != 16 {
		return out, fmt.Errorf("uuid: invalid binary length %d, want 16", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// parseN decodes the 32-hex-digit form with no separators.
func parseN(s string) ([16]byte, error) {
	var out [16]byte
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, fmt.Errorf("uuid: %w", err)
	}
	return out, nil
}

// parseD decodes the 36-character 8-4-4-4-12 hyphenated form (s must already
// have any enclosing braces or parentheses stripped).
func parseD(s string) ([16]byte, error) {
	var out [16]byte
	if len(s) != 36 {
		return out, fmt.Errorf("uuid: invalid length %d, want 36", len(s))
	}
	if s[8] != dash || s[13] != dash || s[18] != dash || s[23] != dash {
		return out, fmt.Errorf("uuid: malformed separators in %q", s)
	}
	if _, err := hex.Decode(out[0:4], []byte(s[0:8])); err != nil {
		return out, fmt.Errorf("uuid: %w", err)
	}
	if _, err := hex.Decode(out[4:6], []byte(s[9:13])); err != nil {
		return out, fmt.Errorf("uuid: %w", err)
	}
	if _, err := hex.Decode(out[6:8], []byte(s[14:18])); err != nil {
		return out, fmt.Errorf("uuid: %w", err)
	}
	if _, err := hex.Decode(out[8:10], []byte(s[19:23])); err != nil {
		return out, fmt.Errorf("uuid: %w", err)
	}
	if _, err := hex.Decode(out[10:16], []byte(s[24:36])); err != nil {
		return out, fmt.Errorf("uuid: %w", err)
	}
	return out, nil
}

// parseX decodes the brace-and-hex-literal form
// {0xdddddddd,0xdddd,0xdddd,{0xdd,0xdd,0xdd,0xdd,0xdd,0xdd,0xdd,0xdd}}, which
// encodes the same 16 bytes as the D form grouped as C-style hex literals
// instead of raw hex pairs. s must be exactly 68 bytes (the form has no
// variable-width fields).
func parseX(s string) ([16]byte, error) {
	var out [16]byte
	if len(s) != 68 {
		return out, fmt.Errorf("uuid: invalid length %d for X form, want 68", len(s))
	}
	if s[0] != '{' || s[67] != '}' {
		return out, fmt.Errorf("uuid: malformed X form %q", s)
	}

	if err := expectLiteral(s, 1, out[0:4]); err != nil {
		return out, err
	}
	if s[11] != ',' {
		return out, fmt.Errorf("uuid: malformed X form %q", s)
	}
	if err := expectLiteral(s, 12, out[4:6]); err != nil {
		return out, err
	}
	if s[18] != ',' {
		return out, fmt.Errorf("uuid: malformed X form %q", s)
	}
	if err := expectLiteral(s, 19, out[6:8]); err != nil {
		return out, err
	}
	if s[25] != ',' || s[26] != '{' {
		return out, fmt.Errorf("uuid: malformed X form %q", s)
	}

	idx := 27
	for i := 0; i < 8; i++ {
		if err := expectLiteral(s, idx, out[8+i:9+i]); err != nil {
			return out, err
		}
		idx += 4
		if i < 7 {
			if s[idx] != ',' {
				return out, fmt.Errorf("uuid: malformed X form %q", s)
			}
		} else {
			if s[idx] != '}' {
				return out, fmt.Errorf("uuid: malformed X form %q", s)
			}
		}
		idx++
	}
	return out, nil
}

// expectLiteral decodes a "0x"-prefixed hex literal at s[at:] into dst,
// where len(dst)*2 is the literal's hex digit width.
func expectLiteral(s string, at int, dst []byte) error {
	width := len(dst) * 2
	if at+2+width > len(s) {
		return fmt.Errorf("uuid: truncated hex literal in %q", s)
	}
	if s[at] != '0' || (s[at+1] != 'x' && s[at+1] != 'X') {
		return fmt.Errorf("uuid: expected 0x-prefixed hex literal in %q", s)
	}
	if _, err := hex.Decode(dst, []byte(s[at+2:at+2+width])); err != nil {
		return fmt.Errorf("uuid: %w", err)
	}
	return nil
}
