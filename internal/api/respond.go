package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/example/eri-mobile-shop/internal/command"
	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	log "github.com/sirupsen/logrus"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON rejects unknown fields so typos in admin payloads surface as 400s
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

var (
	badRequest = []error{
		order.ErrEmptyOrder, order.ErrUnknownStatus,
		product.ErrInvalidID, product.ErrInvalidName, product.ErrInvalidPrice, product.ErrInvalidStock, product.ErrDuplicateVariant,
		settings.ErrInvalidTaxRate, settings.ErrInvalidThreshold, settings.ErrInvalidShipping, settings.ErrInvalidCurrency,
		user.ErrInvalidEmail, user.ErrInvalidName, user.ErrInvalidCredentials,
		auth.ErrPasswordTooShort, auth.ErrPasswordTooLong,
	}
	notFound = []error{product.ErrProductNotFound, order.ErrOrderNotFound, user.ErrUserNotFound}
	conflict = []error{product.ErrProductExists, order.ErrInvalidStatus, command.ErrEmailTaken, store.ErrVersionConflict}
)

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a command or query error onto an HTTP status
func statusFor(err error) int {
	switch {
	case command.IsValidation(err), matches(err, badRequest):
		return http.StatusBadRequest
	case matches(err, notFound):
		return http.StatusNotFound
	case matches(err, conflict):
		return http.StatusConflict
	case errors.Is(err, command.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		log.WithField("path", r.URL.Path).Errorf("[API] %v", err)
		respondJSONError(w, "internal error", status)
	case http.StatusServiceUnavailable:
		log.WithField("path", r.URL.Path).Warnf("[API] %v", err)
		respondJSONError(w, "the order could not be saved, please try again", status)
	default:
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, status, map[string]string{"error": verr.Message, "field": verr.Field})
			return
		}
		respondJSONError(w, err.Error(), status)
	}
}
