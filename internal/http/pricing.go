package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cavestore/orderbot/internal/middlewares"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/services"
)

func QuotePrice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	serviceType := query.Get("service_type")
	if serviceType == "" {
		http.Error(w, "Service type is required", http.StatusUnprocessableEntity)
		return
	}

	// Premium RP is the default, matching the original command.
	premium := query.Get("premium") != "no" && query.Get("premium") != "false"

	pricingService := middlewares.GetServiceFromContext[models.PricingService](w, r, middlewares.PricingServiceKey)

	amount, err := (*pricingService).Quote(serviceType, query.Get("subtype"), query.Get("quantity"), premium)
	if err != nil {
		if errors.Is(err, services.ErrInvalidServiceType) {
			http.Error(w, "Unknown service type", http.StatusUnprocessableEntity)
			return
		}
		if errors.Is(err, services.ErrInvalidSubtype) {
			http.Error(w, "Unknown module subtype", http.StatusUnprocessableEntity)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during computing price: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, models.QuoteResponse{Amount: amount, Currency: "VND"})
}
