package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devmemory/learning-engine/pkg/tools"
)

// decodeAndReply is the shared shape every POST tool route follows: decode
// the JSON body into T, call handle, and write the tool Result as the HTTP
// body (200 on success, 400 when the tool itself flags IsError).
func decodeAndReply[T any](w http.ResponseWriter, r *http.Request, handle func(T) tools.Result) {
	var in T
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := handle(in)
	if res.IsError {
		w.WriteHeader(http.StatusBadRequest)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(res.Text))
}

func storeMemoryHandler(s *tools.Surface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decodeAndReply(w, r, func(in tools.StoreMemoryInput) tools.Result {
			return s.StoreMemory(r.Context(), in)
		})
	}
}

func searchMemoriesHandler(s *tools.Surface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decodeAndReply(w, r, func(in tools.SearchMemoriesInput) tools.Result {
			return s.SearchMemories(r.Context(), in)
		})
	}
}

func getProjectsHandler(s *tools.Surface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.GetProjects(r.Context(), tools.GetProjectsInput{})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(res.Text))
	}
}

func getProjectSessionsHandler(s *tools.Surface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		res := s.GetProjectSessions(r.Context(), tools.GetProjectSessionsInput{ProjectName: name})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(res.Text))
	}
}

func getInsightsHandler(s *tools.Surface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.GetInsights(r.Context(), tools.GetInsightsInput{InsightType: r.URL.Query().Get("type")})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(res.Text))
	}
}

func getCodingPatternsHandler(s *tools.Surface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.GetCodingPatterns(r.Context(), tools.GetCodingPatternsInput{PatternCategory: r.URL.Query().Get("category")})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(res.Text))
	}
}
