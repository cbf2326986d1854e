package public

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/langowen/exchange-rates/internal/api_service/service"
	"github.com/langowen/exchange-rates/internal/entities"
)

type rateResponse struct {
	Base  string  `json:"base"`
	Quote string  `json:"quote"`
	Rate  float64 `json:"rate"`
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type convertResponse struct {
	Base   string             `json:"base"`
	Amount float64            `json:"amount"`
	Values map[string]float64 `json:"values"`
}

// GetRate serves one pair when "to" holds a single code and a batch when it
// holds a comma separated list.
func (s *Server) GetRate(w http.ResponseWriter, r *http.Request) {
	base := entities.NormalizeCode(chi.URLParam(r, "from"))

	quotes := splitCodes(r.URL.Query().Get("to"))
	if len(quotes) == 0 {
		RespondWithError(w, http.StatusBadRequest, "query parameter 'to' is required")
		return
	}

	if len(quotes) == 1 {
		rate, err := s.deps.Service.ResolveOne(r.Context(), base, quotes[0])
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		RespondWithJSON(w, http.StatusOK, rateResponse{Base: base, Quote: quotes[0], Rate: rate})
		return
	}

	rates, err := s.deps.Service.ResolveMany(r.Context(), base, quotes)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, ratesResponse{Base: base, Rates: rates})
}

func (s *Server) GetAllRates(w http.ResponseWriter, r *http.Request) {
	base := entities.NormalizeCode(chi.URLParam(r, "from"))

	rates, err := s.deps.Service.ResolveAll(r.Context(), base)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, ratesResponse{Base: base, Rates: rates})
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	base := entities.NormalizeCode(query.Get("from"))
	if base == "" {
		RespondWithError(w, http.StatusBadRequest, "query parameter 'from' is required")
		return
	}

	quotes := splitCodes(query.Get("to"))
	if len(quotes) == 0 {
		RespondWithError(w, http.StatusBadRequest, "query parameter 'to' is required")
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(query.Get("amount")), 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "query parameter 'amount' must be a number")
		return
	}

	values, err := s.deps.Service.ResolveMany(r.Context(), base, quotes, service.WithAmount(amount))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, convertResponse{Base: base, Amount: amount, Values: values})
}

func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if code := entities.NormalizeCode(part); code != "" {
			codes = append(codes, code)
		}
	}

	return codes
}
