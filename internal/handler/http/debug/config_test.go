package debug

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/config"
)

type staticSource []config.Entry

func (s staticSource) Entries() []config.Entry { return s }

func TestConfigHandler_MasksSecrets(t *testing.T) {
	src := staticSource{
		{Key: "LLM_PROVIDER", Value: "openai"},
		{Key: "OPENAI_API_KEY", Value: "sk-abcdefghijklmnopqrstuvwxyz", Secret: true},
		{Key: "REDIS_PASSWORD", Value: "", Secret: true},
		{Key: "LLM_BASE_URL", Value: ""},
	}
	mux := http.NewServeMux()
	Register(mux, true, src)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "openai", body.Config["LLM_PROVIDER"])
	assert.Equal(t, "sk-a...wxyz", body.Config["OPENAI_API_KEY"])
	assert.Equal(t, "(not set)", body.Config["REDIS_PASSWORD"])
	assert.Equal(t, "(not set)", body.Config["LLM_BASE_URL"])
	assert.ElementsMatch(t, []string{"OPENAI_API_KEY", "REDIS_PASSWORD"}, body.Masked)
	assert.NotContains(t, rec.Body.String(), "abcdefghijklmnop")
}

func TestConfigHandler_RealConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.APIKey = "sk-live-0123456789"

	rec := httptest.NewRecorder()
	(&ConfigHandler{Source: &cfg}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"OPENAI_API_KEY":"sk-l...6789"`)
}

func TestRegister_Disabled(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, false, staticSource{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/config", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegister_WrongMethod(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, true, staticSource{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
