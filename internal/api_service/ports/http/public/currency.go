package public

import (
	"net/http"
)

func (s *Server) ListCurrencies(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.deps.Currencies.List())
}

func (s *Server) RefreshCurrencies(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresher == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "catalog refresh is disabled")
		return
	}

	if err := s.deps.Refresher.Refresh(r.Context()); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]int{"currencies": len(s.deps.Currencies.List())})
}
