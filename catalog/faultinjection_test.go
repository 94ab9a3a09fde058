package catalog

import (
	"testing"

	"github.com/coredb/syscatalog/errors"
	"github.com/stretchr/testify/require"
)

func TestMaybeInjectFailure_ZeroProbabilityNeverFails(t *testing.T) {
	SetFailDuringWrite(0)
	defer SetFailDuringWrite(0)

	for i := 0; i < 100; i++ {
		require.NoError(t, maybeInjectFailure())
	}
}

func TestMaybeInjectFailure_FullProbabilityAlwaysFails(t *testing.T) {
	SetFailDuringWrite(1.0)
	defer SetFailDuringWrite(0)

	err := maybeInjectFailure()
	require.Error(t, err)
	require.Equal(t, errors.RuntimeError, errors.CodeOf(err))
	require.Contains(t, err.Error(), injectedFailureMessage)
}
