package oidc

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRedaction(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	at := AccessToken("at-secret")
	assert.Equal(t, RedactedAccessToken, at.String())
	assert.Equal(t, RedactedAccessToken, fmt.Sprintf("%s", at))
	b, err := json.Marshal(at)
	require.NoError(err)
	assert.Equal(t, `"`+RedactedAccessToken+`"`, string(b))
	assert.Equal(t, "at-secret", string(at))

	rt := RefreshToken("rt-secret")
	assert.Equal(t, RedactedRefreshToken, rt.String())
	b, err = json.Marshal(rt)
	require.NoError(err)
	assert.Equal(t, `"`+RedactedRefreshToken+`"`, string(b))
	assert.Equal(t, "rt-secret", string(rt))
}
