package registration

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/enrollkit/pkg/logger"
	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
	"github.com/dmitrymomot/enrollkit/pkg/temptoken"
	"github.com/dmitrymomot/enrollkit/pkg/validator"
	reg "github.com/dmitrymomot/enrollkit/svc/registration"
)

// errorDetail is the error envelope returned on every non-2xx response.
type errorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
	Errors  map[string]string   `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError translates the service error taxonomy into HTTP statuses:
// validation 400, token problems 401, concurrency and ordering 409,
// expired session 410, throttling 429, delivery failures 502.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		status = http.StatusInternalServerError
		detail = errorDetail{Code: "internal_error", Message: "something went wrong"}
	)

	var (
		cooldownErr *reg.CooldownError
		verifyErr   *reg.VerificationError
		notifyErr   *reg.NotifyError
	)

	switch {
	case validator.IsValidationError(err):
		status = http.StatusBadRequest
		detail = errorDetail{
			Code:    "validation_error",
			Message: "invalid input",
			Details: validator.ExtractValidationErrors(err).ToMap(),
		}
	case errors.As(err, &verifyErr):
		status = http.StatusBadRequest
		detail = errorDetail{
			Code:    "verification_failed",
			Message: "one or more codes were rejected",
			Errors:  verifyErr.Fields,
		}
	case errors.Is(err, temptoken.ErrMalformedToken), errors.Is(err, temptoken.ErrExpiredToken):
		status = http.StatusUnauthorized
		detail = errorDetail{Code: "invalid_token", Message: "token is missing, malformed, or expired"}
	case errors.Is(err, reg.ErrSessionNotFound):
		status = http.StatusNotFound
		detail = errorDetail{Code: "session_not_found", Message: "registration session not found"}
	case errors.Is(err, reg.ErrSessionExpired):
		status = http.StatusGone
		detail = errorDetail{Code: "session_expired", Message: "registration session expired, start over"}
	case errors.Is(err, reg.ErrVersionConflict), errors.Is(err, reg.ErrStepMismatch):
		status = http.StatusConflict
		detail = errorDetail{Code: "version_conflict", Message: "session already advanced, resume to fetch the current state"}
	case stepflow.IsOrderError(err), stepflow.IsUnknownStepError(err):
		status = http.StatusConflict
		detail = errorDetail{Code: "step_order_violation", Message: "submission does not match the session's current step"}
	case stepflow.IsCompletedError(err), errors.Is(err, reg.ErrAlreadyCompleted):
		status = http.StatusConflict
		detail = errorDetail{Code: "already_completed", Message: "registration already completed"}
	case errors.As(err, &cooldownErr):
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", strconv.Itoa(int(cooldownErr.RetryAfter.Seconds())))
		detail = errorDetail{Code: "resend_cooldown", Message: "a code was sent recently, wait before requesting another"}
	case errors.Is(err, reg.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
		detail = errorDetail{Code: "too_many_attempts", Message: "too many failed attempts, request a new code"}
	case errors.Is(err, reg.ErrDuplicateAccount):
		status = http.StatusConflict
		detail = errorDetail{Code: "duplicate_account", Message: "an account with this email already exists"}
	case errors.Is(err, reg.ErrFlowMismatch), errors.Is(err, reg.ErrUnsupportedStep):
		status = http.StatusNotFound
		detail = errorDetail{Code: "not_found", Message: "no such step in this registration flow"}
	case errors.As(err, &notifyErr):
		status = http.StatusBadGateway
		detail = errorDetail{Code: "delivery_failed", Message: "could not deliver the verification code, try resending"}
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "registration request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: detail})
}
