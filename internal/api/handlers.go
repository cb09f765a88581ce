package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/yourusername/learning-agent/internal/marketdata"
	"github.com/yourusername/learning-agent/internal/models"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleLearn handles POST /v1/learn
func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req models.LearnRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.learner.Learn(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClassify handles POST /v1/regime
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req models.ClassifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.classifier.Classify(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClassifySymbol handles GET /v1/regime/{symbol}?timeframe=&limit=
func (s *Server) handleClassifySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	resp, err := s.classifier.ClassifySymbol(r.Context(), symbol, query.Get("timeframe"), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReport handles GET /v1/reports/{id}
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.learner.Report(mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path))
}

// decode reads a bounded JSON body, writing a 400 when it is malformed
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := io.Reader(r.Body)
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps boundary errors onto the envelope
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	writeError(w, status, code, err.Error())
}

func classifyError(err error) (int, string) {
	var fetchErr *marketdata.FetchError
	switch {
	case errors.Is(err, models.ErrReportNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrInvalidMode):
		return http.StatusBadRequest, "invalid_mode"
	case errors.Is(err, models.ErrInvalidSettings):
		return http.StatusBadRequest, "invalid_settings"
	case errors.Is(err, models.ErrUnorderedSeries):
		return http.StatusBadRequest, "unordered_series"
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrSymbolRequired):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, models.ErrPriceSourceMissing):
		return http.StatusBadRequest, "price_source_unavailable"
	case errors.Is(err, models.ErrEmptyPriceSeries):
		return http.StatusNotFound, "no_price_data"
	case errors.As(err, &fetchErr):
		if fetchErr.Code == marketdata.ErrCodeNotFound {
			return http.StatusNotFound, "no_price_data"
		}
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
