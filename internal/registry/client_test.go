package registry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	"github.com/PolarWolf314/pkgdoctor/internal/registry"
	"github.com/PolarWolf314/pkgdoctor/internal/registry/registrytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, opts registry.Options) *registry.Client {
	t.Helper()
	client, err := registry.New(opts)
	require.NoError(t, err)
	return client
}

func TestPingSucceeds(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Ping(http.StatusOK)

	client := newClient(t, registry.Options{Registry: mock.URL()})

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 1, mock.Hits("/-/ping?write=true"))
}

func TestPingStatusError(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Ping(http.StatusNotFound)

	client := newClient(t, registry.Options{Registry: mock.URL()})
	err := client.Ping(context.Background())
	require.Error(t, err)

	regErr, ok := kerrors.AsRegistryError(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.KindStatus, regErr.Kind)
	assert.Equal(t, "404 Not Found - GET "+mock.URL()+"-/ping?write=true", err.Error())
	assert.ErrorIs(t, err, kerrors.ErrNetwork)
}

func TestPingDroppedConnectionIsMessageOnly(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.PingDrop()

	client := newClient(t, registry.Options{Registry: mock.URL()})
	err := client.Ping(context.Background())
	require.Error(t, err)

	regErr, ok := kerrors.AsRegistryError(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.KindMessage, regErr.Kind)
	assert.False(t, regErr.HasCode())
}

func TestPingConnectionRefusedIsCoded(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("errno names are only resolved on unix")
	}
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/"
	server.Close()

	client := newClient(t, registry.Options{Registry: url})
	err := client.Ping(context.Background())
	require.Error(t, err)

	regErr, ok := kerrors.AsRegistryError(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.KindCoded, regErr.Kind)
	assert.Equal(t, "ECONNREFUSED", regErr.Code)
}

func TestPackumentAndToken(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{Token: "s3cret"})
	mock.Package(registrytest.Manifest("npm", "9.9.0", "10.2.4"))

	client := newClient(t, registry.Options{Registry: mock.URL(), Token: "s3cret"})
	packument, err := client.Packument(context.Background(), "npm")
	require.NoError(t, err)

	latest, err := packument.Latest()
	require.NoError(t, err)
	assert.Equal(t, "10.2.4", latest)
	assert.Len(t, packument.Versions, 2)
}

func TestPackumentWrongTokenIsUnauthorized(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{Token: "s3cret"})
	mock.Package(registrytest.Manifest("npm", "10.2.4"))

	client := newClient(t, registry.Options{Registry: mock.URL(), Token: "wrong"})
	_, err := client.Packument(context.Background(), "npm")

	regErr, ok := kerrors.AsRegistryError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, regErr.StatusCode)
}

func TestPackumentScopedName(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Package(registrytest.Manifest("@acme/cli", "1.0.0"))

	client := newClient(t, registry.Options{Registry: mock.URL()})
	packument, err := client.Packument(context.Background(), "@acme/cli")
	require.NoError(t, err)
	assert.Equal(t, "@acme/cli", packument.Name)
}

func TestPackumentMissingLatest(t *testing.T) {
	packument := &registry.Packument{Name: "npm", DistTags: map[string]string{}}
	_, err := packument.Latest()
	assert.Error(t, err)
}

func TestPackumentNotFound(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.PackageStatus("npm", http.StatusNotFound)

	client := newClient(t, registry.Options{Registry: mock.URL()})
	_, err := client.Packument(context.Background(), "npm")
	require.Error(t, err)

	regErr, ok := kerrors.AsRegistryError(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.KindStatus, regErr.Kind)
	assert.Equal(t, http.StatusNotFound, regErr.StatusCode)
}

func TestFetchIndex(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{Token: "s3cret"})
	mock.NodeIndex([]registry.Release{
		{Version: "v22.1.0"},
		{Version: "v20.12.2", LTS: "Iron"},
	})

	client := newClient(t, registry.Options{Registry: mock.URL(), Token: "s3cret"})
	releases, err := client.FetchIndex(context.Background(), mock.NodeDistURL()+"index.json")
	require.NoError(t, err)
	require.Len(t, releases, 2)

	assert.False(t, releases[0].IsLTS())
	assert.True(t, releases[1].IsLTS())
	assert.Equal(t, "Iron", releases[1].LTS)
}

func TestFetchIndexMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	defer server.Close()

	client := newClient(t, registry.Options{Registry: server.URL})
	_, err := client.FetchIndex(context.Background(), server.URL+"/index.json")

	regErr, ok := kerrors.AsRegistryError(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.KindMalformed, regErr.Kind)
}

func TestReleaseUnmarshalRejectsOtherLTSTypes(t *testing.T) {
	var r registry.Release
	assert.Error(t, r.UnmarshalJSON([]byte(`{"version":"v1.0.0","lts":42}`)))
	require.NoError(t, r.UnmarshalJSON([]byte(`{"version":"v1.0.0","lts":false}`)))
	assert.False(t, r.IsLTS())
}

func TestValidateProxy(t *testing.T) {
	assert.NoError(t, registry.ValidateProxy(""))
	assert.NoError(t, registry.ValidateProxy("http://proxy.example.com:8080"))
	assert.ErrorIs(t, registry.ValidateProxy("ftp://proxy.example.com"), kerrors.ErrInvalidProxy)
	assert.ErrorIs(t, registry.ValidateProxy("http://"), kerrors.ErrInvalidProxy)
}

func TestNewRejectsInvalidProxy(t *testing.T) {
	_, err := registry.New(registry.Options{Registry: "https://registry.npmjs.org/", Proxy: "ssh://bad"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidProxy)
}

func TestNewRejectsInvalidRegistry(t *testing.T) {
	_, err := registry.New(registry.Options{Registry: "not a url"})
	assert.Error(t, err)
}

func TestValidateProxyMessage(t *testing.T) {
	err := registry.ValidateProxy("ssh://npmjs.org")
	require.Error(t, err)
	assert.Equal(t, `invalid protocol "ssh:" for proxy "ssh://npmjs.org"`, err.Error())
}
