package public

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/langowen/exchange-rates/internal/entities"
)

type cacheEntryResponse struct {
	Key  string  `json:"key"`
	Rate float64 `json:"rate"`
}

type cacheDetailsResponse struct {
	Enabled  bool   `json:"enabled"`
	Capacity int    `json:"capacity"`
	TTL      string `json:"ttl"`
	Size     int    `json:"size"`
}

func (s *Server) CacheEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Cache.Entries()
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	out := make(map[string]float64, len(entries))
	for key, rate := range entries {
		out[key.String()] = rate
	}

	RespondWithJSON(w, http.StatusOK, out)
}

func (s *Server) CacheKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.deps.Cache.Keys()
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key.String()
	}
	sort.Strings(out)

	RespondWithJSON(w, http.StatusOK, out)
}

func (s *Server) CacheEntry(w http.ResponseWriter, r *http.Request) {
	key, err := entities.ParseRateKey(chi.URLParam(r, "key"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rate, err := s.deps.Cache.Lookup(key)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, cacheEntryResponse{Key: key.String(), Rate: rate})
}

func (s *Server) DeleteCacheEntry(w http.ResponseWriter, r *http.Request) {
	key, err := entities.ParseRateKey(chi.URLParam(r, "key"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err = s.deps.Cache.Delete(key); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Cache.Clear(); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CacheStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Cache.Statistics()
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) CacheDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.deps.Cache.Details()
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, cacheDetailsResponse{
		Enabled:  details.Enabled,
		Capacity: details.Capacity,
		TTL:      details.TTL.String(),
		Size:     details.Size,
	})
}
