package rest

import (
	"formdesk/internal/service"
	"formdesk/internal/transport/rest/handler"
	"formdesk/internal/transport/rest/middleware"
	"formdesk/internal/transport/ws"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	TemplateService *service.TemplateService
	DesignerService *service.DesignerService
	InstanceService *service.InstanceService
	MetricsService  *service.MetricsService
	WSHub           *ws.Hub
	CORSOrigins     []string
	Logger          *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	templateHandler := handler.NewTemplateHandler(c.TemplateService, c.Logger)
	designerHandler := handler.NewDesignerHandler(c.DesignerService, c.Logger)
	instanceHandler := handler.NewInstanceHandler(c.InstanceService, c.Logger)
	metricsHandler := handler.NewMetricsHandler(c.MetricsService, c.Logger)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(middleware.Recover(c.Logger), middleware.Logger(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/templates", templateHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/templates/{templateId}", templateHandler.Get).Methods("GET", "OPTIONS")

	// Designer sessions
	d := v1.PathPrefix("/designer/sessions").Subrouter()
	d.HandleFunc("", designerHandler.Open).Methods("POST", "OPTIONS")
	d.HandleFunc("/{id}", designerHandler.Get).Methods("GET", "OPTIONS")
	d.HandleFunc("/{id}", designerHandler.Close).Methods("DELETE", "OPTIONS")
	d.HandleFunc("/{id}/title", designerHandler.SetTitle).Methods("PUT", "OPTIONS")
	d.HandleFunc("/{id}/save", designerHandler.Save).Methods("POST", "OPTIONS")
	d.HandleFunc("/{id}/sections", designerHandler.AddSection).Methods("POST", "OPTIONS")
	d.HandleFunc("/{id}/sections/{index:[0-9]+}/move", designerHandler.MoveSection).Methods("POST", "OPTIONS")
	d.HandleFunc("/{id}/sections/{sectionId}", designerHandler.DeleteSection).Methods("DELETE", "OPTIONS")
	d.HandleFunc("/{id}/sections/{sectionId}/questions", designerHandler.AddQuestion).Methods("POST", "OPTIONS")
	d.HandleFunc("/{id}/sections/{sectionId}/questions/{questionId}", designerHandler.UpdateQuestion).Methods("PUT", "OPTIONS")
	d.HandleFunc("/{id}/sections/{sectionId}/questions/{questionId}", designerHandler.DeleteQuestion).Methods("DELETE", "OPTIONS")
	d.HandleFunc("/{id}/sections/{sectionId}/reorder", designerHandler.ReorderQuestions).Methods("POST", "OPTIONS")

	v1.HandleFunc("/questionnaires", designerHandler.ListDrafts).Methods("GET", "OPTIONS")
	v1.HandleFunc("/questionnaires/{id}", designerHandler.DeleteDraft).Methods("DELETE", "OPTIONS")

	// Sent questionnaires
	v1.HandleFunc("/instances", instanceHandler.Send).Methods("POST", "OPTIONS")
	v1.HandleFunc("/instances", instanceHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/instances/{id}", instanceHandler.Get).Methods("GET", "OPTIONS")

	// Recipient routes
	v1.HandleFunc("/questionnaire/{id}/open", instanceHandler.Open).Methods("POST", "OPTIONS")
	v1.HandleFunc("/questionnaire/{id}/submit", instanceHandler.Submit).Methods("POST", "OPTIONS")

	v1.HandleFunc("/metrics", metricsHandler.Get).Methods("GET", "OPTIONS")

	// Dashboard feed
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.Logger)
		v1.HandleFunc("/ws/instances", wsHandler.InstancesWS).Methods("GET")
	}

	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowOrigin(origins, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if origin != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request origin
func allowOrigin(origins []string, origin string) string {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return "*"
	}
	if slices.ContainsFunc(origins, func(o string) bool { return strings.EqualFold(o, origin) }) {
		return origin
	}
	return ""
}
