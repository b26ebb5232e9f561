package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/richochetclementine1315/chain-lens/pkg/address"
	"github.com/richochetclementine1315/chain-lens/pkg/orchestrator"
	"github.com/richochetclementine1315/chain-lens/pkg/policy"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	analyzer := orchestrator.New(nil, address.Mainnet, policy.DefaultThresholds)
	r := gin.New()
	r.GET("/api/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.POST("/api/analyze", newAnalyzeHandler(analyzer))
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
}

func TestAnalyzeEndpointRejectsInvalidJSON(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 400, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_JSON")
}

func TestAnalyzeEndpointRejectsBadHex(t *testing.T) {
	r := newTestRouter()
	body := `{"network":"mainnet","raw_tx":"zz","prevouts":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 400, w.Code)
	require.Contains(t, w.Body.String(), "ANALYSIS_FAILED")
}

func TestAnalyzeEndpointAcceptsBareRawHexBody(t *testing.T) {
	r := newTestRouter()
	coinbaseHex := "01000000" + // version
		"01" + // input count
		"0000000000000000000000000000000000000000000000000000000000000000" + // prev txid (32 bytes)
		"ffffffff" + // prev vout
		"00" + // empty scriptSig
		"ffffffff" + // sequence
		"01" + // output count
		"0000000000000000" + // value
		"00" + // empty scriptPubKey
		"00000000" // locktime
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(coinbaseHex))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"ok":true`)
}
