package public

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/langowen/exchange-rates/internal/entities"
)

type errorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func RespondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, errorResponse{
		Status:    code,
		Error:     http.StatusText(code),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondWithServiceError maps domain errors to a status code and a message
// that is safe to show to clients.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := classify(err)

	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "status", code, "error", err)
	} else {
		slog.Debug("request rejected", "path", r.URL.Path, "status", code, "error", err)
	}

	RespondWithError(w, code, message)
}

func classify(err error) (int, string) {
	var invalidCurrency *entities.InvalidCurrencyError
	var upstream *entities.UpstreamError

	switch {
	case errors.As(err, &invalidCurrency):
		return http.StatusBadRequest, invalidCurrency.Error()
	case errors.Is(err, entities.ErrInvalidCurrency):
		return http.StatusBadRequest, entities.ErrInvalidCurrency.Error()
	case errors.Is(err, entities.ErrInvalidAmount):
		return http.StatusBadRequest, entities.ErrInvalidAmount.Error()
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound, entities.ErrNotFound.Error()
	case errors.As(err, &upstream):
		return http.StatusBadGateway, upstream.Error()
	case errors.Is(err, entities.ErrUpstream):
		return http.StatusBadGateway, entities.ErrUpstream.Error()
	case errors.Is(err, entities.ErrCacheUnavailable):
		return http.StatusServiceUnavailable, entities.ErrCacheUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
