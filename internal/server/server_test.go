package server

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `date,customerId,region,revenue,visitors,status
2024-01-01,c1,north,100,10,active
2024-02-01,c2,south,120,12,active
2024-03-01,c1,north,80,8,churned
2024-06-01,c3,,150,20,active
`

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	opt := DefaultOptions()
	opt.RateLimitRPS = 0
	opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if mutate != nil {
		mutate(&opt)
	}
	return New(opt)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrResponse {
	t.Helper()
	var e ErrResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"date", "customerId", "region", "revenue", "visitors", "status"}, resp.Headers)
	require.Len(t, resp.Data, 4)
	assert.Equal(t, "c1", resp.Data[0]["customerId"])
	assert.Equal(t, "", resp.Data[3]["region"])
	assert.Equal(t, "numeric", string(resp.Types["revenue"]))
	assert.Equal(t, "categorical", string(resp.Types["region"]))
}

func TestUploadRejectsNonCSV(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "notes.txt", "a\n1\n")
	rec := do(t, s, http.MethodPost, "/api/upload", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, decodeError(t, rec).HTTPStatusCode)
}

func TestUploadMissingFile(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "other", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no file uploaded", decodeError(t, rec).ErrorText)

	rec = do(t, s, http.MethodPost, "/api/upload", strings.NewReader("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.MaxUploadBytes = 64 })
	body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/upload", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/analyze?asOf=2024-07-01", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rep struct {
		Name             string `json:"name"`
		Rows             int    `json:"rows"`
		DescriptiveStats map[string]struct {
			Mean float64 `json:"mean"`
		} `json:"descriptiveStats"`
		BusinessMetrics struct {
			GrowthRate   float64 `json:"growthRate"`
			Segmentation []struct {
				CustomerID string  `json:"customerId"`
				Recency    float64 `json:"recency"`
			} `json:"segmentation"`
		} `json:"businessMetrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "sales.csv", rep.Name)
	assert.Equal(t, 4, rep.Rows)
	assert.InDelta(t, 112.5, rep.DescriptiveStats["revenue"].Mean, 1e-9)
	assert.InDelta(t, 50, rep.BusinessMetrics.GrowthRate, 1e-9)
	require.Len(t, rep.BusinessMetrics.Segmentation, 3)
	assert.Equal(t, "c3", rep.BusinessMetrics.Segmentation[2].CustomerID)
	assert.InDelta(t, 30, rep.BusinessMetrics.Segmentation[2].Recency, 1e-9)
}

func TestAnalyzeMarkdownAndOverrides(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/analyze?format=markdown&business=false&type=visitors=categorical&trustTypes=true", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
	md := rec.Body.String()
	assert.Contains(t, md, "[DATASET SUMMARY]")
	assert.Contains(t, md, "- visitors: categorical")
	assert.NotContains(t, md, "[RFM SEGMENTATION]")
}

func TestAnalyzeBadQuery(t *testing.T) {
	s := newTestServer(t, nil)
	for _, q := range []string{"asOf=yesterday", "format=pdf", "business=maybe", "type=revenue"} {
		body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
		rec := do(t, s, http.MethodPost, "/api/analyze?"+q, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAnalyzeUnsupportedFile(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "data.json", `{"a":1}`)
	rec := do(t, s, http.MethodPost, "/api/analyze", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.RateLimitRPS = 0.001
		o.RateLimitBurst = 1
	})
	body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	body, ct = multipartBody(t, "file", "sales.csv", salesCSV)
	rec = do(t, s, http.MethodPost, "/api/upload", body, ct)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health and metrics are not limited
	rec = do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "sales.csv", salesCSV)
	rec := do(t, s, http.MethodPost, "/api/analyze", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `dataloom_analyses_total{outcome="ok"} 1`)
	assert.Contains(t, out, "dataloom_analysis_duration_seconds_count 1")
	assert.Contains(t, out, `dataloom_http_requests_total{method="POST",route="/api/analyze",status="200"} 1`)
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeError(t, rec).ErrorText)
}

func TestRecovererReturnsJSON(t *testing.T) {
	h := Recoverer(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).ErrorText)
}
