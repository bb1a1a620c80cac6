package routes

import (
	"horizon/horizon/controllers"

	"github.com/go-chi/chi/v5"
)

func SettingsRoutes(ctrl *controllers.SettingsController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.Get)
	r.Post("/", ctrl.Update)
	return r
}
