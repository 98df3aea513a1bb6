package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
)

// TextID names a searched text by its git blob hash, so a file on disk and
// the same blob read through go-git share one ID.
type TextID [sha1.Size]byte

// ComputeTextID hashes text as git does: SHA-1("blob <len>\x00" + text).
func ComputeTextID(text string) TextID {
	buf := make([]byte, 0, len(text)+24)
	buf = append(buf, "blob "...)
	buf = strconv.AppendInt(buf, int64(len(text)), 10)
	buf = append(buf, 0)
	buf = append(buf, text...)
	return sha1.Sum(buf)
}

// ParseTextID decodes the 40-character hex form produced by Hex.
func ParseTextID(s string) (TextID, error) {
	var id TextID
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("invalid text ID length: expected %d, got %d", hex.EncodedLen(len(id)), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return TextID{}, fmt.Errorf("invalid hex string: %w", err)
	}
	return id, nil
}

func (id TextID) Hex() string    { return hex.EncodeToString(id[:]) }
func (id TextID) String() string { return id.Hex() }

// MarshalText encodes the ID as hex, which also covers JSON values and map keys.
func (id TextID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *TextID) UnmarshalText(b []byte) error {
	parsed, err := ParseTextID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the ID as a hex TEXT column.
func (id TextID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan reads a hex TEXT column.
func (id *TextID) Scan(value any) error {
	switch v := value.(type) {
	case string:
		return id.UnmarshalText([]byte(v))
	case []byte:
		return id.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into TextID", value)
	}
}
