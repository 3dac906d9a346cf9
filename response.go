package gotable

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Failure statuses reported in fragment responses.
const (
	StatusInvalidToken     = "invalid_token"
	StatusForbidden        = "forbidden"
	StatusMissingParameter = "missing_parameter"
	StatusNoData           = "no_data"
	StatusInternal         = "internal"
)

// Fragment is the payload of a successful fragment request.
type Fragment struct {
	HTML        string `json:"html"`
	TotalItems  int    `json:"total_items"`
	PerPage     int    `json:"per_page"`
	CurrentPage int    `json:"current_page"`
}

// FailureData describes why a fragment request was refused.
type FailureData struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Response is the JSON envelope of fragment requests.
type Response[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func Success(fragment Fragment) Response[Fragment] {
	return Response[Fragment]{Success: true, Data: fragment}
}

// Failure classifies err into a failure payload and the HTTP status to send
// it with. Unclassified errors are reported as internal without detail.
func Failure(err error) (Response[FailureData], int) {
	data, code := classify(err)
	return Response[FailureData]{Data: data}, code
}

func classify(err error) (FailureData, int) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return FailureData{Message: "Security check failed", Status: StatusInvalidToken}, http.StatusForbidden
	case errors.Is(err, ErrForbidden):
		return FailureData{Message: "Access denied", Status: StatusForbidden}, http.StatusForbidden
	case errors.Is(err, ErrMissingInstance):
		return FailureData{Message: "Missing table_id", Status: StatusMissingParameter}, http.StatusBadRequest
	case errors.Is(err, ErrUnknownInstance):
		return FailureData{Message: "Unknown table_id", Status: StatusMissingParameter}, http.StatusBadRequest
	case errors.Is(err, ErrNoData):
		return FailureData{Message: "No data provided", Status: StatusNoData}, http.StatusBadRequest
	default:
		return FailureData{Message: "Internal error", Status: StatusInternal}, http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeFailure(w http.ResponseWriter, err error) int {
	payload, status := Failure(err)
	writeJSON(w, status, payload)
	return status
}
