package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/internal/value"
)

type stubSource struct {
	result source.ConfigResult
	err    error

	lastQuery source.ConfigQuery
	lastSel   source.InvalidateSelector
}

func (s *stubSource) Fetch(ctx context.Context, q source.ConfigQuery) (source.ConfigResult, error) {
	s.lastQuery = q

	if s.err != nil {
		return source.ConfigResult{}, s.err
	}

	return s.result, nil
}

func (s *stubSource) DefaultLabel() string { return "main" }

func (s *stubSource) Invalidate(sel source.InvalidateSelector) { s.lastSel = sel }

func objOf(k string, v value.Value) value.Value {
	m := value.NewOrderedMap()
	m.Set(k, v)

	return value.Object(m)
}

func sampleResult() source.ConfigResult {
	obj := value.NewOrderedMap()
	obj.Set("server", objOf("port", value.Int(8080)))

	return source.ConfigResult{
		Name:            "myapp",
		Profiles:        []string{"dev"},
		Label:           "main",
		Version:         "deadbeef",
		PropertySources: source.PropertySourceList{{Name: "git:main:myapp-dev.yml", Properties: obj}},
	}
}

func TestResolveDefaultsToEnvironmentJSON(t *testing.T) {
	src := &stubSource{result: sampleResult()}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/myapp/dev", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))

	assert.Equal(t, "myapp", doc["name"])
	assert.Equal(t, "main", doc["label"])

	assert.Equal(t, []string{"dev"}, src.lastQuery.Profiles)
}

func TestResolveNegotiatesYAML(t *testing.T) {
	src := &stubSource{result: sampleResult()}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/myapp/dev", nil)
	req.Header.Set("Accept", "application/x-yaml")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "port: 8080")
}

func TestResolveNegotiatesProperties(t *testing.T) {
	src := &stubSource{result: sampleResult()}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/myapp/dev", nil)
	req.Header.Set("Accept", "text/plain")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "server.port=8080")
}

func TestResolveMapsLabelNotFoundTo404(t *testing.T) {
	src := &stubSource{err: source.NewLabelNotFoundError("missing")}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/myapp/dev/missing", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveMapsSourceFailureTo502(t *testing.T) {
	src := &stubSource{err: source.NewSourceError("git fetch", "network unreachable", context.DeadlineExceeded)}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/myapp/dev", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHealthReturnsUp(t *testing.T) {
	src := &stubSource{result: sampleResult()}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvalidateCacheBuildsSelectorFromPath(t *testing.T) {
	src := &stubSource{result: sampleResult()}
	app := NewRouter(NewHandler(src, nil, nil), nil)

	req := httptest.NewRequest(http.MethodDelete, "/cache/myapp/dev", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "myapp", src.lastSel.Application)
	assert.Equal(t, "dev", src.lastSel.Profile)
}
