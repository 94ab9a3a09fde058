// Copyright 2023 The Cuber Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package limiter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiter_WriteConcurrency(t *testing.T) {
	l := NewLimiter(LimitConfig{WriteConcurrency: 1})

	require.NoError(t, l.AcquireWrite())
	require.Equal(t, errors.New("limit exceeded"), l.AcquireWrite())

	l.ReleaseWrite()
	require.NoError(t, l.AcquireWrite())
	l.ReleaseWrite()
}

func TestLimiter_UnlimitedWhenZero(t *testing.T) {
	l := NewLimiter(LimitConfig{})
	for i := 0; i < 10; i++ {
		require.NoError(t, l.AcquireWrite())
	}
}
