package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/aaronds650/MovieMeV2/internal/ai"
	"github.com/aaronds650/MovieMeV2/internal/database"
	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/recommendation"
	"github.com/aaronds650/MovieMeV2/internal/validation"
)

const maxBodyBytes = 1 << 20

var errNotFound = errors.New("not found")

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// errorResponse maps every error the handlers can see to a status and body.
func errorResponse(err error) (int, errorBody) {
	switch {
	case errors.Is(err, recommendation.ErrSessionNotFound):
		return http.StatusNotFound, errorBody{Error: "Session not found", Code: "session_not_found"}
	case errors.Is(err, recommendation.ErrSessionBusy):
		return http.StatusConflict, errorBody{Error: "A batch is already loading for this session", Code: "session_busy"}
	case errors.Is(err, recommendation.ErrSessionExhausted):
		return http.StatusGone, errorBody{Error: "No more recommendations available", Code: "session_exhausted"}
	case errors.Is(err, recommendation.ErrSessionCapReached):
		return http.StatusGone, errorBody{Error: "Recommendation limit reached for this session", Code: "session_cap_reached"}
	case errors.Is(err, database.ErrAlreadyWatched):
		return http.StatusConflict, errorBody{Error: "Movie already watched", Code: "already_watched"}
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, errorBody{Error: "Not found", Code: "not_found"}
	}

	var aerr *ai.Error
	if !errors.As(err, &aerr) {
		return http.StatusInternalServerError, errorBody{Error: ai.PublicMessage(ai.KindInternal), Code: string(ai.KindInternal)}
	}

	body := errorBody{Error: aerr.Message, Code: string(aerr.Kind), Field: aerr.Field}
	if body.Error == "" {
		body.Error = ai.PublicMessage(aerr.Kind)
	}

	switch aerr.Kind {
	case ai.KindValidation:
		return http.StatusBadRequest, body
	case ai.KindRateLimited, ai.KindProviderRateLimited:
		return http.StatusTooManyRequests, body
	case ai.KindProviderQuotaExceeded:
		return http.StatusServiceUnavailable, body
	case ai.KindNoResults:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)

	logger := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Str("code", body.Code).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Str("code", body.Code).Msg("request rejected")
	}

	respondJSON(w, status, body)
}

// bind decodes a JSON body into v and validates it.
func bind(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ai.ValidationError("body", "request body is required")
		}
		return ai.ValidationError("body", "request body must be valid JSON")
	}

	if err := validation.Struct(v); err != nil {
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			return ai.ValidationError(fe.Field, fe.Message())
		}
		return ai.ValidationError("body", err.Error())
	}
	return nil
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, errorBody{Error: "Not found", Code: "not_found"})
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed", Code: "method_not_allowed"})
}

func usageLimitedHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusTooManyRequests, errorBody{
		Error: ai.PublicMessage(ai.KindRateLimited),
		Code:  string(ai.KindRateLimited),
	})
}
