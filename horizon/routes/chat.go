package routes

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"horizon/horizon/controllers"
	"horizon/horizon/services/chat"
	"horizon/horizon/utils/types"
)

func ChatRoutes(ctrl *controllers.ChatController) chi.Router {
	r := chi.NewRouter()
	// POST /chat : send message, answer streamed as SSE
	r.Post("/", ctrl.Chat)

	// GET /chat/ws : same exchange over a websocket; one JSON request in,
	// an id frame plus the raw upstream lines out.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var req types.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}
		if req.Model == "" || req.Prompt == "" {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"model and prompt are required"}`))
			return
		}

		stream, err := ctrl.Orchestrator().Start(ctx, req)
		if err != nil {
			frame, _ := json.Marshal(map[string]string{"error": err.Error()})
			conn.Write(ctx, websocket.MessageText, frame)
			return
		}

		idFrame, _ := json.Marshal(map[string]string{"chat_id": stream.ChatID})
		if err := conn.Write(ctx, websocket.MessageText, idFrame); err != nil {
			return
		}

		stream.Run(ctx, chat.SinkFunc(func(data string) error {
			return conn.Write(ctx, websocket.MessageText, []byte(data))
		}))
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}
