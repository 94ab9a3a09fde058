package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPartitionSchema_ExactlyOnePartition(t *testing.T) {
	require.Len(t, buildPartitionSchema(), 1)
}

func TestCatalogSchema_Equals(t *testing.T) {
	require.True(t, canonicalSchema.Equals(canonicalSchema))

	other := canonicalSchema
	other.MetadataColumn = "value"
	require.False(t, canonicalSchema.Equals(other))
}
