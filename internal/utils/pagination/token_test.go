package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeSequenceToken(t *testing.T) {
	for _, id := range []uint64{0, 1, 42, math.MaxUint64} {
		token := EncodeSequenceToken(id)
		assert.NotEmpty(t, token, "Token should not be empty")

		decoded, err := DecodeSequenceToken(token)
		assert.NoError(t, err, "Decoding should not return an error")
		assert.Equal(t, id, decoded, "Sequence ID should match after decode")
	}
}

func TestDecodeSequenceTokenError(t *testing.T) {
	// Test invalid base64
	_, err := DecodeSequenceToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	// Test wrong prefix
	_, err = DecodeSequenceToken(EncodeMultiFieldToken("date", "12"))
	assert.Error(t, err, "Should return an error for a foreign token")
	assert.Contains(t, err.Error(), "split", "Error should mention splitting issue")

	// Test non-numeric sequence
	_, err = DecodeSequenceToken(EncodeMultiFieldToken("seq", "abc"))
	assert.Error(t, err, "Should return an error for a non-numeric sequence")
	assert.Contains(t, err.Error(), "sequence parse", "Error should mention sequence parsing issue")
}

func TestMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("a", "b", "c")
	parts, err := DecodeMultiFieldToken(token)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}
