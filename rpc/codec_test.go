package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := jsonCodec{}
	req := &GetPermanentUUIDRequest{TabletID: "sys-catalog"}

	data, err := c.Marshal(req)
	require.NoError(t, err)

	var got GetPermanentUUIDRequest
	require.NoError(t, c.Unmarshal(data, &got))
	require.Equal(t, *req, got)
	require.Equal(t, "json", c.Name())
}
