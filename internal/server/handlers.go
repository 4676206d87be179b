package server

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

var validate = validator.New()

// UploadResponse mirrors the parsed table: headers, inferred types and
// rows as header→cell maps. Missing cells are empty strings.
type UploadResponse struct {
	Headers []string                      `json:"headers"`
	Types   map[string]dataset.ColumnType `json:"types"`
	Data    []map[string]string           `json:"data"`
	Warning []string                      `json:"warnings,omitempty"`
}

// Render implements render.Renderer.
func (u *UploadResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type analyzeParams struct {
	AsOf       string `validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
	Format     string `validate:"omitempty,oneof=json markdown md yaml yml"`
	Business   string `validate:"omitempty,boolean"`
	TrustTypes string `validate:"omitempty,boolean"`
	Types      []string
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleUpload parses a CSV upload and returns its rows without analysis.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, hdr, errResp := s.formFile(w, r)
	if errResp != nil {
		_ = render.Render(w, r, errResp)
		return
	}
	defer file.Close()
	if !strings.EqualFold(extension(hdr.Filename), ".csv") {
		_ = render.Render(w, r, errResponse(http.StatusUnsupportedMediaType, "only CSV files are supported"))
		return
	}

	opt := s.opt.Dataset
	ds, err := dataset.ReadCSV(r.Context(), file, hdr.Filename, opt)
	if err != nil {
		_ = render.Render(w, r, errResponse(http.StatusBadRequest, fmt.Sprintf("error parsing CSV file: %v", err)))
		return
	}

	resp := &UploadResponse{
		Headers: ds.Headers,
		Types:   dataset.ClassifyAll(ds),
		Data:    make([]map[string]string, 0, ds.Len()),
		Warning: ds.Warnings,
	}
	for i := range ds.Rows {
		m := make(map[string]string, len(ds.Headers))
		for j, h := range ds.Headers {
			m[h] = ds.Cell(i, j).String()
		}
		resp.Data = append(resp.Data, m)
	}
	s.log.DebugContext(r.Context(), "upload parsed",
		slog.String("file", hdr.Filename), slog.Int("rows", ds.Len()), slog.Int("columns", len(ds.Headers)))
	_ = render.Render(w, r, resp)
}

// handleAnalyze loads the uploaded file and responds with the full report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := analyzeParams{
		AsOf:       q.Get("asOf"),
		Format:     q.Get("format"),
		Business:   q.Get("business"),
		TrustTypes: q.Get("trustTypes"),
		Types:      q["type"],
	}
	if err := validate.Struct(params); err != nil {
		_ = render.Render(w, r, errResponse(http.StatusBadRequest, fmt.Sprintf("invalid query: %v", err)))
		return
	}
	opt := s.opt.Analysis
	opt.Logger = s.log
	if params.AsOf != "" {
		asOf, err := parseAsOf(params.AsOf)
		if err != nil {
			_ = render.Render(w, r, errResponse(http.StatusBadRequest, err.Error()))
			return
		}
		opt.AsOf = asOf
	}
	if params.Business != "" {
		opt.Business, _ = strconv.ParseBool(params.Business)
	}
	if params.TrustTypes != "" {
		opt.TrustTypes, _ = strconv.ParseBool(params.TrustTypes)
	}
	types, err := dataset.ParseTypeOverrides(params.Types)
	if err != nil {
		_ = render.Render(w, r, errResponse(http.StatusBadRequest, err.Error()))
		return
	}
	if types != nil {
		opt.Types = types
	}

	file, hdr, errResp := s.formFile(w, r)
	if errResp != nil {
		_ = render.Render(w, r, errResp)
		return
	}
	defer file.Close()

	ds, err := dataset.Read(r.Context(), file, hdr.Filename, s.opt.Dataset)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		s.metrics.observeAnalysis("invalid", 0, 0)
		_ = render.Render(w, r, errResponse(status, err.Error()))
		return
	}

	start := time.Now()
	rep, err := analysis.Build(r.Context(), ds, opt)
	if err != nil {
		s.metrics.observeAnalysis("cancelled", ds.Len(), time.Since(start))
		_ = render.Render(w, r, errResponse(http.StatusServiceUnavailable, err.Error()))
		return
	}
	s.metrics.observeAnalysis("ok", ds.Len(), time.Since(start))

	format, _ := analysis.ParseFormat(params.Format)
	if params.Format == "" {
		format = analysis.FormatJSON
	}
	body, err := analysis.Render(rep, format)
	if err != nil {
		_ = render.Render(w, r, errResponse(http.StatusInternalServerError, err.Error()))
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// formFile extracts the "file" part, enforcing the upload size limit.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, *ErrResponse) {
	limit := s.opt.MaxUploadBytes
	if r.ContentLength > limit {
		return nil, nil, errTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errTooLarge
		}
		return nil, nil, errResponse(http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, hdr, nil
}

func parseAsOf(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid asOf %q (use YYYY-MM-DD or RFC3339)", s)
}

func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

func contentType(format string) string {
	switch format {
	case analysis.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case analysis.FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}
