package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/report"
	"github.com/sandevgo/reportgen/pkg/conv"
	"github.com/sandevgo/reportgen/pkg/log"
)

type reportRequest struct {
	SessionID   string `json:"sessionId"`
	CompanyID   string `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Prompt      string `json:"prompt"`
}

type reportResponse struct {
	SessionID  string            `json:"sessionId"`
	Text       string            `json:"text"`
	Outcome    string            `json:"outcome"`
	Company    *core.CompanyRef  `json:"company,omitempty"`
	Candidates []core.CompanyRef `json:"candidates,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reply, err := s.reporter.Handle(r.Context(), report.Turn{
		SessionID:   req.SessionID,
		CompanyID:   req.CompanyID,
		CompanyName: req.CompanyName,
		Prompt:      req.Prompt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Session-Id", reply.SessionID)

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(conv.MarkdownToHTML([]byte(reply.Text))))
		return
	}

	resp := reportResponse{
		SessionID:  reply.SessionID,
		Text:       reply.Text,
		Outcome:    reply.Outcome.String(),
		Candidates: reply.Candidates,
	}
	if !reply.Company.IsZero() {
		company := reply.Company
		resp.Company = &company
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var company core.Company
	if err := decodeJSON(w, r, &company); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.store.AddCompany(r.Context(), &company)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.directory.Invalidate()

	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	company, err := s.store.GetByID(r.Context(), r.PathValue("id"), r.URL.Query().Get("companyName"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleGetByName(w http.ResponseWriter, r *http.Request) {
	company, err := s.store.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleAllCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if companies == nil {
		companies = []core.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

// statusFor maps domain errors to HTTP status codes. Lookups of a missing record are
// 404, every other caller mistake is 400 and everything else is 500.
func statusFor(r *http.Request, err error) int {
	switch {
	case r.Method == http.MethodGet && errors.Is(err, core.ErrCompanyNotFound):
		return http.StatusNotFound
	case core.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromCtx(r.Context())
	status := statusFor(r, err)

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", core.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
