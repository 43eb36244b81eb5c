package httpadapter

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

func (rt *Router) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authentication required", Details: "Missing or invalid access token"})
	}
	return actor, ok
}

func (rt *Router) getGarage(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	garage, err := rt.garages.Get(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, garage)
}

func (rt *Router) updateGarage(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	var input domain.GarageInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "update garage", err))
		return
	}
	garage, err := rt.garages.Update(r.Context(), actor, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, garage)
}

type meResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name,omitempty"`
	ActiveGarageID string `json:"active_garage_id,omitempty"`
}

func (rt *Router) me(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, meResponse{
		ID:             actor.UserID,
		Email:          actor.Email,
		FullName:       actor.FullName,
		ActiveGarageID: actor.GarageID,
	})
}

func (rt *Router) listClaims(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	params, err := bindListClaimsParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	claims, err := rt.claims.List(r.Context(), actor, params.filter())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, claims)
}

func (rt *Router) createClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	var input domain.ClaimInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "create claim", err))
		return
	}
	claim, err := rt.claims.Create(r.Context(), actor, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, claim)
}

func (rt *Router) getClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	id, err := bindClaimID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	claim, err := rt.claims.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, claim)
}

func (rt *Router) updateClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	id, err := bindClaimID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input domain.ClaimInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "update claim", err))
		return
	}
	claim, err := rt.claims.Update(r.Context(), actor, id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, claim)
}

func (rt *Router) deleteClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	id, err := bindClaimID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.claims.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Claim deleted"})
}

func (rt *Router) claimHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	id, err := bindClaimID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := rt.claims.History(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

type pdfResponse struct {
	PDFURL   string `json:"pdf_url"`
	Filename string `json:"filename"`
}

func (rt *Router) generatePDF(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	id, err := bindClaimID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.reports.Generate(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pdfResponse{PDFURL: report.PDFURL, Filename: report.Filename})
}

func (rt *Router) exportClaims(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	params, err := bindListClaimsParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Buffered so a failed export still gets a JSON error response.
	var buf bytes.Buffer
	if err := rt.claims.Export(r.Context(), actor, params.filter(), &buf); err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("dossiers_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", rt.claims.ExportContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
