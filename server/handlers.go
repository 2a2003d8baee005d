package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/recommend"
)

const maxWeightsBody = 64 << 10

// 前端依赖这些响应文案
const (
	msgListingNotFound = "Listing not found"
	msgNoWeights       = "No weights provided"
	msgWeightsUpdated  = "Weights updated successfully"
)

type weightsUpdatedBody struct {
	Message string             `json:"message"`
	Weights map[string]float64 `json:"weights"`
}

type refreshBody struct {
	Listings int `json:"listings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		respondJSON(w, http.StatusOK, []core.Summary{})
		return
	}
	limit, err := intParam(q.Get("limit"), "limit", core.DefaultSearchLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	results, err := s.engine.Search(r.Context(), query, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	req, err := recommendRequest(id, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	results, err := s.engine.Recommend(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if results == nil {
		results = []recommend.Result{}
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	listing, err := s.engine.ListingDetail(r.Context(), id)
	if err != nil {
		if core.IsNotFound(err) {
			respondJSON(w, http.StatusNotFound, errorBody{Error: msgListingNotFound, Code: core.ErrorCodeNotFound})
			return
		}
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleGetWeights(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Weights().Map())
}

func (s *Server) handleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWeightsBody))
	if err != nil {
		s.respondError(w, r, core.NewInvalidInput(core.ModuleWeights, "weights: request body too large"))
		return
	}
	var candidate map[string]any
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &candidate); err != nil {
			s.respondError(w, r, core.NewInvalidInput(core.ModuleWeights, "weights: body must be a JSON object of feature weights"))
			return
		}
	}
	if len(candidate) == 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: msgNoWeights, Code: core.ErrorCodeInvalidInput})
		return
	}
	updated, err := s.engine.SetWeights(candidate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, weightsUpdatedBody{Message: msgWeightsUpdated, Weights: updated.Map()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.RefreshCatalog(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, refreshBody{Listings: n})
}

func (s *Server) handleCatalogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.CatalogStats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, core.NewInvalidInput(core.ModuleRecommend, "listing id must be an integer")
	}
	return id, nil
}

// recommendRequest 从查询参数构造推荐请求；缺省 limit=10, threshold=0.6
func recommendRequest(id int64, r *http.Request) (recommend.Request, error) {
	q := r.URL.Query()
	req := recommend.NewRequest(id)

	var err error
	if req.MaxResults, err = intParam(q.Get("limit"), "limit", req.MaxResults); err != nil {
		return req, err
	}
	if req.MaxPerNeighbourhood, err = intParam(q.Get("per_neighbourhood"), "per_neighbourhood", 0); err != nil {
		return req, err
	}
	if raw := q.Get("threshold"); raw != "" {
		if req.Threshold, err = strconv.ParseFloat(raw, 64); err != nil {
			return req, core.NewInvalidInput(core.ModuleRecommend, "threshold must be a number")
		}
	}
	if raw := q.Get("explain"); raw != "" {
		if req.Explain, err = strconv.ParseBool(raw); err != nil {
			return req, core.NewInvalidInput(core.ModuleRecommend, "explain must be a boolean")
		}
	}
	req.Filter = q.Get("filter")
	return req, nil
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, core.NewInvalidInput(core.ModuleRecommend, name+" must be an integer")
	}
	return v, nil
}
