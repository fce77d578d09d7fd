package lastfm

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServer_ReceivesToken(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	resp, err := http.Get("http://" + as.Addr() + "/callback?token=tok-123")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "Account linked")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	token, err := as.WaitForToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestAuthServer_EmptyToken(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	resp, err := http.Get(as.CallbackURL())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = as.WaitForToken(ctx)
	assert.ErrorIs(t, err, errNoToken)
}

func TestAuthServer_RejectsPost(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	resp, err := http.Post(as.CallbackURL()+"?token=tok", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAuthServer_WaitTimesOut(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = as.WaitForToken(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
