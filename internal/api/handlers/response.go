package handlers

import (
	"errors"
	"net/http"

	"lot-auction/internal/domain"

	"github.com/shopspring/decimal"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  int              `json:"status"`
	Message string           `json:"message"`
	Data    any              `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
	Floor   *decimal.Decimal `json:"floor,omitempty"`
}

func success(status int, data any, message string) Response {
	return Response{Status: status, Message: message, Data: data}
}

// MapErrorToHTTP maps domain errors to a status code and a short message.
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorizedAction):
		return http.StatusForbidden, "action not permitted"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, domain.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func failure(err error) Response {
	status, message := MapErrorToHTTP(err)
	resp := Response{Status: status, Message: message}
	if status != http.StatusInternalServerError {
		resp.Error = err.Error()
	}

	var tooLow *domain.BidTooLowError
	if errors.As(err, &tooLow) {
		floor := tooLow.Floor
		resp.Floor = &floor
	}
	return resp
}

func badRequest(err error) Response {
	return Response{Status: http.StatusBadRequest, Message: "invalid request payload", Error: err.Error()}
}
