package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVaultSecrets_KV2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/medfinder/api", r.URL.Path)
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"MEDFINDER_TEST_JWT":"s3cret","MEDFINDER_TEST_PORT":8080,"MEDFINDER_TEST_KEEP":"from-vault"}}}`))
	}))
	defer server.Close()

	t.Setenv("MEDFINDER_TEST_JWT", "")
	t.Setenv("MEDFINDER_TEST_PORT", "")
	t.Setenv("MEDFINDER_TEST_KEEP", "from-env")

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root-token",
		Mount:     "secret",
		Path:      "medfinder/api",
		KVVersion: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "s3cret", os.Getenv("MEDFINDER_TEST_JWT"))
	assert.Equal(t, "8080", os.Getenv("MEDFINDER_TEST_PORT"))
	assert.Equal(t, "from-env", os.Getenv("MEDFINDER_TEST_KEEP"))
}

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, result.Enabled)
}

func TestFetchVaultSecrets_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"errors":["permission denied"]}`, http.StatusForbidden)
	}))
	defer server.Close()

	_, err := FetchVaultSecrets(context.Background(), VaultConfig{
		Addr: server.URL, Token: "bad", Mount: "secret", Path: "medfinder/api", KVVersion: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchVaultSecrets_Incomplete(t *testing.T) {
	_, err := FetchVaultSecrets(context.Background(), VaultConfig{Addr: "http://vault"})
	assert.Error(t, err)
}

func TestBuildVaultURL(t *testing.T) {
	url, err := buildVaultURL("http://vault:8200/", "/secret/", "/medfinder/api", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/medfinder/api", url)

	url, err = buildVaultURL("http://vault:8200", "secret", "medfinder/api", 2)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/data/medfinder/api", url)
}
