/*
server.go - Router and middleware

ROUTE GROUPS:
  /api/staff/view          Hierarchy snapshot + selection changes
  /api/staff/departments   Department CRUD (delete cascades)
  /api/staff/employees     Employee CRUD (delete cascades)
  /api/staff/family        Family member CRUD (no cascade)
  /api/fleet/*             Drone variant

Middleware follows the usual stack: request logging, panic recovery,
request ids, CORS for a local frontend.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/staff", func(r chi.Router) {
			r.Get("/view", h.StaffView)
			r.Post("/view/department", h.SelectDepartment)
			r.Post("/view/employee", h.SelectEmployee)

			r.Route("/departments", func(r chi.Router) {
				r.Post("/", h.CreateDepartment)
				r.Put("/{id}", h.UpdateDepartment)
				r.Delete("/{id}", h.DeleteDepartment)
			})
			r.Route("/employees", func(r chi.Router) {
				r.Post("/", h.CreateEmployee)
				r.Put("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
			})
			r.Route("/family", func(r chi.Router) {
				r.Post("/", h.CreateFamilyMember)
				r.Put("/{id}", h.UpdateFamilyMember)
				r.Delete("/{id}", h.DeleteFamilyMember)
			})
		})

		r.Route("/fleet", func(r chi.Router) {
			r.Get("/view", h.FleetView)
			r.Post("/view/select", h.SelectDrone)
			r.Route("/drones", func(r chi.Router) {
				r.Post("/", h.CreateDrone)
				r.Put("/{id}", h.UpdateDrone)
				r.Delete("/{id}", h.DeleteDrone)
			})
		})
	})

	return r
}
