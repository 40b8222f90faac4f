package apiserver

import (
	"net/http"

	"go.uber.org/zap"

	"streamify/internal/chat"
	"streamify/internal/logger"
	"streamify/internal/middleware"
)

// ChatHandler exposes the chat-token endpoint.
type ChatHandler struct {
	provider chat.Provider
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(provider chat.Provider) *ChatHandler {
	return &ChatHandler{provider: provider}
}

// TokenHandler handles GET /api/chat/token. It issues a provider token for
// the authenticated caller so the frontend can connect to the chat SaaS.
func (h *ChatHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	token, err := h.provider.CreateToken(user.IDString())
	if err != nil {
		logger.Error("generating chat token", zap.Uint("userId", user.ID), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Chat token generated successfully",
		"token":   token,
	})
}
