package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the course and card generation endpoints under /api.
func RegisterRoutes(r chi.Router, courses *CourseHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-cards", courses.GenerateCards)

		r.Route("/courses", func(r chi.Router) {
			r.Post("/", courses.CreateCourse)
			r.Get("/", courses.ListCourses)
			r.Get("/{id}", courses.GetCourse)
			r.Delete("/{id}", courses.DeleteCourse)
			r.Put("/{id}/progress", courses.UpdateProgress)
			r.Put("/{id}/saved", courses.UpdateSaved)
		})
	})
}
