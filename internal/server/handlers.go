package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/models"
)

// graphResponse is the full renderable graph: positioned nodes plus edges.
type graphResponse struct {
	Nodes []graphNode   `json:"nodes"`
	Edges []models.Edge `json:"edges"`
}

type graphNode struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	ClusterID string  `json:"cluster_id"`
}

func (s *Server) handleCreateConcept(w http.ResponseWriter, r *http.Request) {
	var input models.ConceptInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	concept, err := s.ingester.IngestConcept(r.Context(), &input)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("concept ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, concept)
}

func (s *Server) handleGetConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	concept, err := s.storage.GetConcept(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "concept not found")
		return
	}
	s.respondJSON(w, http.StatusOK, concept)
}

func (s *Server) handleDeleteConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete concept request", zap.String("id", id))
	if err := s.ingester.DeleteConcept(r.Context(), id); err != nil {
		s.logger.Error("concept deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if s.keywordIndex == nil {
		s.respondError(w, http.StatusNotImplemented, "keyword search not enabled")
		return
	}
	results, err := s.keywordIndex.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleRebuild starts a rebuild in the background and returns immediately.
// Progress is visible via /api/v1/status. A second request while one is
// running gets 409.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if !s.rebuilding.CompareAndSwap(false, true) {
		s.respondError(w, http.StatusConflict, "rebuild already in progress")
		return
	}
	go func() {
		defer s.rebuilding.Store(false)
		if _, err := s.orchestrator.Rebuild(context.Background()); err != nil {
			s.logger.Error("rebuild failed", zap.Error(err))
		}
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild started"})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	positions, err := s.storage.ListPositions(ctx)
	if err != nil {
		s.logger.Error("graph: list positions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	edges, err := s.storage.ListEdges(ctx, "")
	if err != nil {
		s.logger.Error("graph: list edges failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	nodes := make([]graphNode, 0, len(positions))
	for _, p := range positions {
		concept, err := s.storage.GetConcept(ctx, p.ConceptID)
		if err != nil {
			// Concept deleted since the last rebuild; skip its stale position.
			continue
		}
		nodes = append(nodes, graphNode{
			ID:        concept.ID,
			Title:     concept.Title,
			Category:  concept.CategoryOrDefault(),
			X:         p.X,
			Y:         p.Y,
			Z:         p.Z,
			ClusterID: p.ClusterID,
		})
	}
	if edges == nil {
		edges = []models.Edge{}
	}
	s.respondJSON(w, http.StatusOK, graphResponse{Nodes: nodes, Edges: edges})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := s.orchestrator.Status(ctx)
	if err != nil {
		s.logger.Error("status: read rebuild status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	conceptCount, err := s.storage.CountConcepts(ctx)
	if err != nil {
		s.logger.Error("status: count concepts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	edgeCount, err := s.storage.CountEdges(ctx)
	if err != nil {
		s.logger.Error("status: count edges failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	positionCount, err := s.storage.CountPositions(ctx)
	if err != nil {
		s.logger.Error("status: count positions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rebuild":   status,
		"concepts":  conceptCount,
		"edges":     edgeCount,
		"positions": positionCount,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
