package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"makemybill/m/domain"
)

type errorResponse struct {
	Error     string           `json:"error"`
	Kind      domain.ErrorKind `json:"kind"`
	ProductID string           `json:"product_id,omitempty"`
	Line      *int             `json:"line,omitempty"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:      http.StatusBadRequest,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindInsufficient:    http.StatusConflict,
	domain.KindDuplicateNumber: http.StatusConflict,
	domain.KindCorruptSequence: http.StatusInternalServerError,
	domain.KindInvalidSaleData: http.StatusUnprocessableEntity,
	domain.KindTimeout:         http.StatusServiceUnavailable,
	domain.KindConflict:        http.StatusConflict,
	domain.KindUnauthorized:    http.StatusUnauthorized,
}

// respondDomainError reports err with its stable kind. Unclassified errors
// are logged and answered with a generic message.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := errorResponse{Error: err.Error(), Kind: kind}
	var lineErr *domain.LineItemError
	if errors.As(err, &lineErr) {
		body.ProductID = lineErr.ProductID
		line := lineErr.Index
		body.Line = &line
	}

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r)),
		zap.String("user_id", userID(r)),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	switch kind {
	case domain.KindInternal, domain.KindCorruptSequence:
		h.logger.Error("request failed", fields...)
		body.Error = "internal server error"
	case domain.KindTimeout:
		h.logger.Warn("request timed out", fields...)
		w.Header().Set("Retry-After", "1")
		body.Error = "storage timed out, please retry"
	default:
		h.logger.Debug("request rejected", fields...)
	}
	respondJSON(w, status, body)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return &domain.ValidationError{Field: "body", Err: err}
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Err: errors.New("is required")}
	}
	return nil
}
