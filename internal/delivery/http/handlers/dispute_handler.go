package handlers

import (
	"net/http"

	httpdto "github.com/LavaJover/marketplace-order-service/internal/delivery/http/dto"
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/dispute"
	disputedto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/dispute"
	"github.com/go-chi/chi/v5"
)

type DisputeHandler struct {
	manager dispute.Manager
}

func NewDisputeHandler(manager dispute.Manager) *DisputeHandler {
	return &DisputeHandler{manager: manager}
}

// POST /api/v1/orders/{order_id}/dispute
func (h *DisputeHandler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	a, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor")
		return
	}
	var req httpdto.OpenDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	c, err := h.manager.OpenDispute(r.Context(), &disputedto.OpenDisputeInput{
		OrderID: 	chi.URLParam(r, "order_id"),
		ActorID: 	a.ID,
		Role: 		a.Role,
		Reason: 	req.Reason,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewCaseResponse(c))
}

// GET /api/v1/orders/{order_id}/dispute
func (h *DisputeHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	c, err := h.manager.GetDispute(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewCaseResponse(c))
}

// GET /api/v1/disputes
func (h *DisputeHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := &disputedto.ListCasesInput{
		OrderID: 	q.Get("order_id"),
		OperatorID: q.Get("operator_id"),
		Statuses: 	splitList(q.Get("status")),
	}
	var err error
	if input.Page, err = intParam(q.Get("page")); err != nil {
		handleError(w, r, err)
		return
	}
	if input.Limit, err = intParam(q.Get("limit")); err != nil {
		handleError(w, r, err)
		return
	}

	page, err := h.manager.ListCases(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewCasesPageResponse(page))
}

// GET /api/v1/disputes/{case_id}
func (h *DisputeHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.manager.GetCase(r.Context(), chi.URLParam(r, "case_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewCaseResponse(c))
}

// POST /api/v1/disputes/{case_id}/evidence
func (h *DisputeHandler) AddEvidence(w http.ResponseWriter, r *http.Request) {
	a, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor")
		return
	}
	var req httpdto.EvidenceRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	c, err := h.manager.AddEvidence(r.Context(), &disputedto.AddEvidenceInput{
		CaseID: 	chi.URLParam(r, "case_id"),
		ActorID: 	a.ID,
		Role: 		a.Role,
		Note: 		req.Note,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewCaseResponse(c))
}

// POST /api/v1/disputes/{case_id}/review
func (h *DisputeHandler) TakeUnderReview(w http.ResponseWriter, r *http.Request) {
	a, ok := operatorFromContext(w, r)
	if !ok {
		return
	}
	c, err := h.manager.TakeUnderReview(r.Context(), chi.URLParam(r, "case_id"), a.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewCaseResponse(c))
}

// POST /api/v1/disputes/{case_id}/resolve
func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	a, ok := operatorFromContext(w, r)
	if !ok {
		return
	}
	var req httpdto.ResolveRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	action, err := domain.ParseResolutionAction(req.Action)
	if err != nil {
		handleError(w, r, err)
		return
	}

	outcome, err := h.manager.Resolve(r.Context(), &disputedto.ResolveInput{
		CaseID: 	chi.URLParam(r, "case_id"),
		OperatorID: a.ID,
		Action: 	action,
		Amount: 	req.Amount,
		AssigneeID: req.AssigneeID,
		Note: 		req.Note,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewResolutionResponse(outcome))
}

// operatorFromContext writes the error response itself when the caller is not an operator.
func operatorFromContext(w http.ResponseWriter, r *http.Request) (actor, bool) {
	a, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor")
		return actor{}, false
	}
	if a.Role != domain.RoleOperator {
		respondError(w, http.StatusForbidden, "unauthorized", "only operators may manage dispute cases")
		return actor{}, false
	}
	return a, true
}
