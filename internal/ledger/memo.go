package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EncodeMemo converts memo text to the uppercase hex wire form.
func EncodeMemo(text string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(text)))
}

// DecodeMemo converts a hex memo field back to text.
func DecodeMemo(encoded string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("invalid memo encoding: %w", err)
	}
	return string(raw), nil
}
