package routes

import (
	"horizon/horizon/controllers"

	"github.com/go-chi/chi/v5"
)

func ConversationRoutes(ctrl *controllers.ConversationsController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.List)
	r.Get("/{chat_id}", ctrl.Get)
	r.Get("/{chat_id}/messages", ctrl.Messages)
	r.Delete("/{chat_id}", ctrl.Delete)
	return r
}
