package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/trendscope/internal/apperr"
)

const maxSummarizeBody = 64 << 10

type summarizeRequest struct {
	Text   string `json:"text" validate:"required"`
	APIKey string `json:"apiKey" validate:"required"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req summarizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSummarizeBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large"})
			return
		}
		log.Warn().Err(err).Msg("decoding summarize request")
		writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "Missing text or API key"})
		return
	}

	summary, err := s.Summarizer.Summarize(r.Context(), req.APIKey, req.Text)
	if err != nil {
		// never log the request body, it carries the credential
		log.Error().Err(err).Msg("summarizing")
		status, body := summarizeFailure(err)
		writeJSON(w, r, status, body)
		return
	}
	writeJSON(w, r, http.StatusOK, summarizeResponse{Summary: summary})
}

func summarizeFailure(err error) (int, errorBody) {
	var (
		vErr *apperr.ValidationError
		aErr *apperr.AuthError
		uErr *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, errorBody{Error: vErr.Message}
	case errors.As(err, &aErr):
		return http.StatusUnauthorized, errorBody{Error: "Invalid API key. Please check your API key in settings."}
	case errors.As(err, &uErr):
		return apperr.HTTPStatus(err), errorBody{Error: "Failed to generate summary"}
	case apperr.IsTimeout(err):
		return http.StatusGatewayTimeout, errorBody{Error: "Failed to summarize", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Failed to summarize", Message: err.Error()}
	}
}
