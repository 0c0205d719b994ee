package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/analytics"
	"salesdash/internal/core"
	"salesdash/internal/loader"
	"salesdash/internal/log"
	"salesdash/internal/storage"
)

const filterDateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAnalysisError maps domain errors onto HTTP status codes. Unexpected
// errors are logged with full detail; the response body stays generic.
func (s *Server) writeAnalysisError(ctx context.Context, w http.ResponseWriter, err error) {
	var schemaErr *core.SchemaError
	switch {
	case errors.Is(err, storage.ErrDatasetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &schemaErr),
		errors.Is(err, loader.ErrEmptySource),
		errors.Is(err, analytics.ErrInvalidTopN):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.LogError(ctx, "Analysis request failed", err, log.ComponentHTTP, log.OpAnalyze, log.NewFields())
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseFilter builds a record filter from query parameters. Repeated
// category/customer parameters and comma-separated lists both work.
func parseFilter(r *http.Request) (core.Filter, error) {
	var f core.Filter
	q := r.URL.Query()

	if from := q.Get("from"); from != "" {
		t, err := time.Parse(filterDateLayout, from)
		if err != nil {
			return core.Filter{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		f.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(filterDateLayout, to)
		if err != nil {
			return core.Filter{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		f.To = t
	}
	f.Categories = splitParams(q["category"])
	f.Customers = splitParams(q["customer"])
	return f, nil
}

func splitParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseTopN reads the optional ?n= parameter, using def when absent.
func parseTopN(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid n parameter")
	}
	return n, nil
}

// records loads a dataset's record set, applying any request filter. The
// full set is cached per dataset; filters run against the cached copy.
func (s *Server) records(w http.ResponseWriter, r *http.Request) (*core.RecordSet, bool) {
	id := r.PathValue("id")

	rs, ok := s.recordCache.Get(id)
	if !ok {
		loaded, err := s.store.LoadRecords(r.Context(), id)
		if err != nil {
			s.writeAnalysisError(r.Context(), w, err)
			return nil, false
		}
		s.recordCache.Set(id, loaded)
		rs = loaded
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if !filter.IsZero() {
		rs = rs.Filter(filter)
	}
	return rs, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes)

	name, raw, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.ingest.IngestCSV(r.Context(), name, raw)
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}

	status := http.StatusCreated
	if result.Deduplicated {
		status = http.StatusOK
	} else {
		s.logger.LogDatasetIngested(r.Context(), result.Dataset.ID, result.Dataset.Name, result.Dataset.RowCount)
	}
	writeJSON(w, status, result)
}

// readUpload accepts either a multipart form with a "file" field or a raw
// CSV body named via the ?name= parameter.
func readUpload(r *http.Request) (string, []byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.New("missing file field in multipart form")
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			return "", nil, errors.New("failed to read uploaded file")
		}
		return header.Filename, raw, nil
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, errors.New("failed to read request body")
	}
	if len(raw) == 0 {
		return "", nil, errors.New("empty request body")
	}
	return name, raw, nil
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets(r.Context())
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteDataset(r.Context(), id); err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	s.recordCache.Delete(id)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Dataset deleted", log.FieldDatasetID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	summary := analytics.Summarize(rs)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monthly": analytics.NewTimeSeries(rs).Monthly()})
}

func (s *Server) handleQuarterly(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quarterly": analytics.NewTimeSeries(rs).Quarterly()})
}

func (s *Server) handleWeekdays(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekdays": analytics.NewTimeSeries(rs).WeekdayPattern()})
}

func (s *Server) handleCategorySales(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": analytics.NewProducts(rs).CategorySales()})
}

func (s *Server) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	n, err := parseTopN(r, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	products, err := analytics.NewProducts(rs).TopProducts(n)
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleTopProductsByCategory(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	n, err := parseTopN(r, 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ranks, err := analytics.NewProducts(rs).TopProductsByCategory(n)
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": ranks})
}

func (s *Server) handlePriceDistribution(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bands": analytics.NewProducts(rs).PriceDistribution()})
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": analytics.NewCustomers(rs).Detail()})
}

func (s *Server) handleTopCustomers(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	n, err := parseTopN(r, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	customers, err := analytics.NewCustomers(rs).Top(n)
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *Server) handleConcentration(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.NewCustomers(rs).Concentration())
}

// Discount endpoints answer 200 with available=false when the dataset has
// no discount column, so clients can render an empty state instead of
// treating the response as a failure.
type discountEnvelope struct {
	Available bool `json:"available"`
	Data      any  `json:"data,omitempty"`
}

func (s *Server) handleDiscountApplication(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, discountEnvelope{
		Available: rs.HasDiscountData(),
		Data:      analytics.NewDiscounts(rs).Application(),
	})
}

func (s *Server) handleRateDistribution(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	bands, err := analytics.NewDiscounts(rs).RateDistribution()
	if errors.Is(err, analytics.ErrNoDiscountData) {
		writeJSON(w, http.StatusOK, discountEnvelope{Available: false})
		return
	}
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, discountEnvelope{Available: true, Data: bands})
}

func (s *Server) handleDiscountByCategory(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	categories, err := analytics.NewDiscounts(rs).ByCategory()
	if errors.Is(err, analytics.ErrNoDiscountData) {
		writeJSON(w, http.StatusOK, discountEnvelope{Available: false})
		return
	}
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, discountEnvelope{Available: true, Data: categories})
}

func (s *Server) handleDiscountSummary(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, discountEnvelope{
		Available: rs.HasDiscountData(),
		Data:      analytics.NewDiscounts(rs).Summary(),
	})
}

func (s *Server) handleRequestReport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := s.reports.RequestReport(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		s.writeAnalysisError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}
