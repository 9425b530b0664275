package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/hyperjump/kbase/internal/models"
	"go.uber.org/zap"
)

// retrieveRequest is a retrieve query plus transport-only options.
type retrieveRequest struct {
	models.RetrieveQuery
	// NoUpdate searches the index as it is, skipping the maintenance pass.
	NoUpdate bool `json:"no_update,omitempty"`
}

type indexRequest struct {
	KnowledgeBase string `json:"knowledge_base_name,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListKnowledgeBases(w http.ResponseWriter, r *http.Request) {
	names, err := s.backend.ListKnowledgeBases()
	if err != nil {
		s.logger.Error("list knowledge bases failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"knowledge_bases": names})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("retrieve request",
		zap.String("query", req.Query),
		zap.String("knowledge_base", req.KnowledgeBase),
		zap.Bool("no_update", req.NoUpdate))

	query := req.RetrieveQuery
	var (
		response *models.RetrieveResponse
		err      error
	)
	if req.NoUpdate {
		response, err = s.backend.Search(r.Context(), &query)
	} else {
		response, err = s.backend.Retrieve(r.Context(), &query)
	}
	if err != nil {
		s.logger.Error("retrieve failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	report, err := s.backend.Update(r.Context(), req.KnowledgeBase)
	if err != nil {
		s.logger.Error("index update failed", zap.String("knowledge_base", req.KnowledgeBase), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.backend.Status()
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuery), errors.Is(err, indexer.ErrInvalidKnowledgeBase):
		return http.StatusBadRequest
	case errors.Is(err, indexer.ErrKnowledgeBaseNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
