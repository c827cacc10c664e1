package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	httpdto "github.com/LavaJover/marketplace-order-service/internal/delivery/http/dto"
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	engine lifecycle.Engine
}

func NewOrderHandler(engine lifecycle.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req httpdto.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.engine.CreateOrder(r.Context(), &orderdto.CreateOrderInput{
		OrderID: 	req.OrderID,
		ListingID: 	req.ListingID,
		BuyerID: 	req.BuyerID,
		SellerID: 	req.SellerID,
		Quantity: 	req.Quantity,
		UnitPrice: 	req.UnitPrice,
		Currency: 	req.Currency,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, httpdto.NewOrderResponse(order))
}

// GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewOrderResponse(order))
}

// GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := &orderdto.ListOrdersInput{
		BuyerID: 	q.Get("buyer_id"),
		SellerID: 	q.Get("seller_id"),
		ListingID: 	q.Get("listing_id"),
		Statuses: 	splitList(q.Get("status")),
		SortBy: 	q.Get("sort_by"),
		SortOrder: 	q.Get("sort_order"),
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
	if input.DateFrom, err = timeParam(q.Get("date_from")); err != nil {
		handleError(w, r, err)
		return
	}
	if input.DateTo, err = timeParam(q.Get("date_to")); err != nil {
		handleError(w, r, err)
		return
	}

	page, err := h.engine.ListOrders(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewOrdersPageResponse(page))
}

// POST /api/v1/orders/{order_id}/actions/{action}
func (h *OrderHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	a, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor")
		return
	}
	action, err := domain.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req httpdto.ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.engine.Apply(r.Context(), lifecycle.ApplyInput{
		OrderID: 	chi.URLParam(r, "order_id"),
		ActorID: 	a.ID,
		Role: 		a.Role,
		Action: 	action,
		Payload: lifecycle.Payload{
			Reason: 	req.Reason,
			Note: 		req.Note,
			CaseID: 	req.CaseID,
			Amount: 	req.Amount,
			AssigneeID: req.AssigneeID,
			Rating: 	req.Rating,
			Comment: 	req.Comment,
			Metadata: 	req.Metadata,
		},
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewOrderResponse(order))
}

// GET /api/v1/orders/{order_id}/audit
func (h *OrderHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	trail, err := h.engine.GetAuditTrail(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewAuditTrailResponse(trail))
}

// GET /api/v1/orders/{order_id}/replay
func (h *OrderHandler) ReplayStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	status, err := h.engine.ReplayStatus(r.Context(), orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.ReplayResponse{OrderID: orderID, Status: status.String()})
}

// GET /api/v1/listings/{listing_id}/reviews
func (h *OrderHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.engine.ListReviews(r.Context(), chi.URLParam(r, "listing_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, httpdto.NewReviewsResponse(reviews))
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidPayload, v)
	}
	return n, nil
}

func timeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 time", domain.ErrInvalidPayload, v)
	}
	return t, nil
}
