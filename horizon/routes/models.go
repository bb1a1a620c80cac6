package routes

import (
	"horizon/horizon/controllers"

	"github.com/go-chi/chi/v5"
)

func ModelRoutes(ctrl *controllers.ModelsController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.List)
	r.Get("/detailed", ctrl.ListDetailed)
	r.Get("/status", ctrl.Status)
	r.Post("/pull", ctrl.Pull)
	r.Delete("/{name}", ctrl.Delete)
	return r
}
