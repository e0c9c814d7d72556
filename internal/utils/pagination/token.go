package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// sequencePrefix marks tokens that carry a ledger sequence ID.
const sequencePrefix = "seq"

// EncodeSequenceToken creates an opaque token pointing after the given record ID.
func EncodeSequenceToken(afterID uint64) string {
	return EncodeMultiFieldToken(sequencePrefix, strconv.FormatUint(afterID, 10))
}

// DecodeSequenceToken parses a token created by EncodeSequenceToken.
func DecodeSequenceToken(token string) (uint64, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) != 2 || parts[0] != sequencePrefix {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (sequence parse): %w", err)
	}
	return id, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
// This provides flexibility for different pagination strategies
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}
