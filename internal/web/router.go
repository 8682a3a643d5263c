package web

import (
	"net/http"

	"blogweb/middleware"

	"github.com/gorilla/mux"
)

func (h *WebHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(h.logger))

	// Session monitor endpoints sit outside the monitor middleware
	r.HandleFunc("/session/events", h.monitor.Events).Methods("GET")
	r.HandleFunc("/session/expired", h.monitor.ExpiredHandler).Methods("GET")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")

	pages := r.NewRoute().Subrouter()
	pages.Use(h.monitor.Middleware)

	// Public pages
	pages.HandleFunc("/", h.Home).Methods("GET")
	pages.HandleFunc("/blogs/{id}", h.ArticleDetail).Methods("GET")
	pages.HandleFunc("/login", h.Login).Methods("GET", "POST")
	pages.HandleFunc("/register", h.Register).Methods("GET", "POST")
	pages.HandleFunc("/forgot-password", h.ForgotPassword).Methods("GET", "POST")
	pages.HandleFunc("/reset/{token}", h.ResetPassword).Methods("GET", "POST")
	pages.HandleFunc("/logout", h.Logout).Methods("POST")

	// Pages behind the auth gate
	auth := h.middleware.AuthMiddleware
	pages.HandleFunc("/create", auth(h.CreateArticle)).Methods("GET", "POST")
	pages.HandleFunc("/edit/{id}", auth(h.EditArticle)).Methods("GET", "POST")
	pages.HandleFunc("/blogs/{id}/delete", auth(h.DeleteArticle)).Methods("POST")
	pages.HandleFunc("/my-blogs", auth(h.MyArticles)).Methods("GET")
	pages.HandleFunc("/delete-account", auth(h.DeleteAccount)).Methods("POST")
	pages.HandleFunc("/activity", auth(h.Activity)).Methods("GET")

	// 404 handler
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}
