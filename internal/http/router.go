package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Bookings   *BookingHandler
	Apartments *ApartmentHandler
	Users      *UserHandler
	Reviews    *ReviewHandler
	Content    *ContentHandler
	// Authenticate guards every route outside the public catalog. A nil
	// value leaves protected routes unguarded, which only tests should do.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newResponder(nil).writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: statusMessage(http.StatusNotFound)})
	})

	// Public routes are registered first so they win over the guarded subrouter.
	if cfg.Apartments != nil {
		router.HandleFunc("/apartments", cfg.Apartments.List).Methods(http.MethodGet)
		router.HandleFunc("/apartments/{id}", cfg.Apartments.Get).Methods(http.MethodGet)
	}
	if cfg.Bookings != nil {
		router.HandleFunc("/apartments/{id}/blocked-dates", cfg.Bookings.BlockedDates).Methods(http.MethodGet)
		router.HandleFunc("/apartments/{id}/quote", cfg.Bookings.Quote).Methods(http.MethodGet)
	}
	if cfg.Reviews != nil {
		router.HandleFunc("/apartments/{id}/reviews", cfg.Reviews.List).Methods(http.MethodGet)
	}
	if cfg.Users != nil {
		router.HandleFunc("/users", cfg.Users.Register).Methods(http.MethodPost)
	}
	if cfg.Content != nil {
		router.HandleFunc("/sliders", cfg.Content.ListSliders).Methods(http.MethodGet)
		router.HandleFunc("/contacts", cfg.Content.SubmitContact).Methods(http.MethodPost)
	}

	protected := router.NewRoute().Subrouter()
	if cfg.Authenticate != nil {
		protected.Use(mux.MiddlewareFunc(cfg.Authenticate))
	}

	if cfg.Bookings != nil {
		protected.HandleFunc("/bookings", cfg.Bookings.List).Methods(http.MethodGet)
		protected.HandleFunc("/bookings", cfg.Bookings.Create).Methods(http.MethodPost)
		protected.HandleFunc("/bookings/{id}", cfg.Bookings.Get).Methods(http.MethodGet)
		protected.HandleFunc("/bookings/{id}", cfg.Bookings.Transition).Methods(http.MethodPatch)
	}
	if cfg.Apartments != nil {
		protected.HandleFunc("/apartments", cfg.Apartments.Create).Methods(http.MethodPost)
		protected.HandleFunc("/apartments/{id}", cfg.Apartments.Update).Methods(http.MethodPut, http.MethodPatch)
		protected.HandleFunc("/apartments/{id}", cfg.Apartments.Delete).Methods(http.MethodDelete)
	}
	if cfg.Reviews != nil {
		protected.HandleFunc("/apartments/{id}/reviews", cfg.Reviews.Create).Methods(http.MethodPost)
		protected.HandleFunc("/reviews/{id}", cfg.Reviews.Delete).Methods(http.MethodDelete)
	}
	if cfg.Users != nil {
		protected.HandleFunc("/users", cfg.Users.List).Methods(http.MethodGet)
		protected.HandleFunc("/users/me", cfg.Users.Me).Methods(http.MethodGet)
		protected.HandleFunc("/users/{id}", cfg.Users.Get).Methods(http.MethodGet)
		protected.HandleFunc("/users/{id}", cfg.Users.Update).Methods(http.MethodPut, http.MethodPatch)
		protected.HandleFunc("/users/{id}", cfg.Users.Delete).Methods(http.MethodDelete)
		protected.HandleFunc("/users/{id}/deposits", cfg.Users.Deposit).Methods(http.MethodPost)
		protected.HandleFunc("/users/{id}/ledger", cfg.Users.Ledger).Methods(http.MethodGet)
	}
	if cfg.Content != nil {
		protected.HandleFunc("/sliders", cfg.Content.CreateSlider).Methods(http.MethodPost)
		protected.HandleFunc("/sliders/{id}", cfg.Content.UpdateSlider).Methods(http.MethodPut)
		protected.HandleFunc("/sliders/{id}", cfg.Content.DeleteSlider).Methods(http.MethodDelete)
		protected.HandleFunc("/contacts", cfg.Content.ListContacts).Methods(http.MethodGet)
		protected.HandleFunc("/contacts/{id}", cfg.Content.DeleteContact).Methods(http.MethodDelete)
	}

	var handler http.Handler = router
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
