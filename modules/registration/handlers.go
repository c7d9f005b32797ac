package registration

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/enrollkit/pkg/validator"
	reg "github.com/dmitrymomot/enrollkit/svc/registration"
)

// stepResponse wraps the temp token every non-final step returns.
type stepResponse struct {
	Token     string    `json:"tempToken"`
	Step      string    `json:"step"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toStepResponse(res *reg.StepResult) stepResponse {
	return stepResponse{Token: res.Token, Step: res.Step.String(), ExpiresAt: res.ExpiresAt}
}

type beginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type collegeRequest struct {
	CollegeID   string `json:"collegeId"`
	CollegeName string `json:"collegeName"`
}

type profileRequest struct {
	Position   string `json:"position"`
	Department string `json:"department"`
}

type tokenGrantRequest struct {
	Skip       bool   `json:"skip"`
	Symbol     string `json:"tokenSymbol"`
	Allocation string `json:"tokenAllocation"`
}

type verifyRequest struct {
	EmailCode string `json:"emailCode"`
	PhoneCode string `json:"phoneCode"`
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16)).Decode(dst); err != nil {
		return validator.ValidationErrors{{Field: "body", Message: "invalid JSON payload"}}
	}
	return nil
}

// requestToken extracts the temp token from the Authorization header
// (Bearer scheme) or, as a fallback, the X-Temp-Token header.
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Temp-Token"))
}

type handlers struct {
	svc *reg.Service
	log *slog.Logger
}

func (h *handlers) begin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	res, err := h.svc.Begin(r.Context(), reg.BeginInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(res))
}

func (h *handlers) selectCollege(w http.ResponseWriter, r *http.Request) {
	var req collegeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	res, err := h.svc.SelectCollege(r.Context(), requestToken(r), reg.CollegeInput{
		CollegeID:   req.CollegeID,
		CollegeName: req.CollegeName,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(res))
}

func (h *handlers) submitProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	res, err := h.svc.SubmitProfile(r.Context(), requestToken(r), reg.ProfileInput{
		Position:   req.Position,
		Department: req.Department,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(res))
}

func (h *handlers) configureTokenGrant(w http.ResponseWriter, r *http.Request) {
	var req tokenGrantRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	res, err := h.svc.ConfigureTokenGrant(r.Context(), requestToken(r), reg.TokenGrantInput{
		Skip:       req.Skip,
		Symbol:     req.Symbol,
		Allocation: req.Allocation,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(res))
}

func (h *handlers) resendCodes(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ResendCodes(r.Context(), requestToken(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(res))
}

func (h *handlers) resume(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Resume(r.Context(), requestToken(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepResponse(res))
}

func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	result, err := h.svc.Verify(r.Context(), requestToken(r), reg.VerifyInput{
		EmailCode: req.EmailCode,
		PhoneCode: req.PhoneCode,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
