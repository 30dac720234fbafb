package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cavestore/orderbot/internal/middlewares"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/services"
	"github.com/cavestore/orderbot/internal/timeutil"
	"github.com/go-chi/chi/v5"
)

// writeOrderError maps lifecycle errors onto specific user-facing responses:
// "not found", "forbidden" and "already in that state" are distinct answers.
func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		http.Error(w, "Order was not found", http.StatusNotFound)
	case errors.Is(err, services.ErrNotOwner):
		http.Error(w, "You cannot cancel another customer's order", http.StatusForbidden)
	case errors.Is(err, services.ErrNotAssignee):
		http.Error(w, "You did not claim this order", http.StatusForbidden)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, "You are not allowed to modify this order", http.StatusForbidden)
	case errors.Is(err, services.ErrNotCancelable):
		http.Error(w, "Order is already approved and cannot be cancelled", http.StatusConflict)
	case errors.Is(err, services.ErrAlreadyAssigned):
		http.Error(w, "Order already has an assignee", http.StatusConflict)
	case errors.Is(err, services.ErrNotAssignable):
		http.Error(w, "Order cannot be claimed from its current status", http.StatusConflict)
	case errors.Is(err, services.ErrNotYetAssigned):
		http.Error(w, "Order has not been assigned yet", http.StatusConflict)
	case errors.Is(err, services.ErrNotApprovable):
		http.Error(w, "Order cannot be approved from its current status", http.StatusConflict)
	case errors.Is(err, services.ErrNotCompletable):
		http.Error(w, "Order cannot be completed from its current status", http.StatusConflict)
	case errors.Is(err, timeutil.ErrInvalidDuration):
		http.Error(w, "Duration must be a positive number", http.StatusUnprocessableEntity)
	default:
		http.Error(w, fmt.Sprintf("Error occurred during processing order: %s", err.Error()), http.StatusInternalServerError)
	}
}

func CreateOrder(w http.ResponseWriter, r *http.Request) {
	req := middlewares.GetParsedJSONData[models.CreateOrderRequest](w, r)

	if strings.TrimSpace(req.ServiceType) == "" {
		http.Error(w, "Service type is required", http.StatusUnprocessableEntity)
		return
	}

	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).Create(r.Context(), *actor, req)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	middlewares.EncodeJSONResponse(w, order)
}

func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(w, err)
		return
	}

	view := models.OrderView{Order: *order}
	if order.Deadline != nil {
		local, zone := timeutil.ToLocalTime(*order.Deadline, "")
		view.Remaining = timeutil.Remaining(*order.Deadline)
		view.LocalDeadline = fmt.Sprintf("%s (%s)", local.Format("02/01/2006 15:04"), zone)
	}

	middlewares.EncodeJSONResponse(w, view)
}

func ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))

	if status != "" && !status.Valid() {
		http.Error(w, "Unknown status filter", http.StatusUnprocessableEntity)
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	orders, err := (*orderService).ListOrders(r.Context(), status)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

func ApproveOrder(w http.ResponseWriter, r *http.Request) {
	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if err := (*orderService).Approve(r.Context(), chi.URLParam(r, "orderID"), *actor); err != nil {
		writeOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func AssignOrder(w http.ResponseWriter, r *http.Request) {
	req := middlewares.GetParsedJSONData[models.AssignOrderRequest](w, r)

	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).Assign(r.Context(), chi.URLParam(r, "orderID"), *actor, req.Hours)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

func ExtendOrder(w http.ResponseWriter, r *http.Request) {
	req := middlewares.GetParsedJSONData[models.ExtendOrderRequest](w, r)

	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	order, err := (*orderService).Extend(r.Context(), chi.URLParam(r, "orderID"), *actor, req.Minutes)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

func CompleteOrder(w http.ResponseWriter, r *http.Request) {
	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if err := (*orderService).Complete(r.Context(), chi.URLParam(r, "orderID"), *actor); err != nil {
		writeOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if err := (*orderService).Cancel(r.Context(), chi.URLParam(r, "orderID"), *actor); err != nil {
		writeOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func DeleteOrder(w http.ResponseWriter, r *http.Request) {
	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if err := (*orderService).Delete(r.Context(), chi.URLParam(r, "orderID"), *actor); err != nil {
		writeOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func EditNote(w http.ResponseWriter, r *http.Request) {
	req := middlewares.GetParsedJSONData[models.EditNoteRequest](w, r)

	actor := middlewares.GetActorFromContext(w, r)
	if actor == nil {
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if err := (*orderService).EditNote(r.Context(), chi.URLParam(r, "orderID"), *actor, req.Note); err != nil {
		writeOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func GetStats(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	stats, err := (*orderService).Stats(r.Context())
	if err != nil {
		writeOrderError(w, err)
		return
	}

	middlewares.EncodeJSONResponse(w, stats)
}
