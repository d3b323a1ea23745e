package ingestion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_JSONMarshaling(t *testing.T) {
	metadata := &Metadata{
		Source:     "proposal.pdf.txt",
		Format:     FormatText,
		Timestamp:  "2024-01-01T00:00:00Z",
		Hash:       "abcd1234",
		Characters: 42,
	}

	jsonBytes, err := metadata.ToJSON()
	require.NoError(t, err)

	var unmarshaled Metadata
	require.NoError(t, json.Unmarshal(jsonBytes, &unmarshaled))
	assert.Equal(t, *metadata, unmarshaled)
}

func TestComputeHash(t *testing.T) {
	hash1 := computeHash("test content")
	hash2 := computeHash("different content")

	assert.Len(t, hash1, 64)
	assert.NotEqual(t, hash1, hash2)
	assert.Equal(t, hash1, computeHash("test content"))
}

func TestNewMetadata(t *testing.T) {
	content := "méthane"
	metadata := NewMetadata(content, "p.txt", FormatText)

	assert.Equal(t, "p.txt", metadata.Source)
	assert.Equal(t, FormatText, metadata.Format)
	assert.Equal(t, 7, metadata.Characters)
	assert.Equal(t, computeHash(content), metadata.Hash)

	_, err := time.Parse(time.RFC3339, metadata.Timestamp)
	assert.NoError(t, err)
}
