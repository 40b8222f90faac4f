package apiserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"streamify/internal/logger"
	"streamify/internal/middleware"
	"streamify/internal/services"
)

// UserHandler exposes the friend-workflow endpoints.
type UserHandler struct {
	friendService services.FriendService
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(friendService services.FriendService) *UserHandler {
	return &UserHandler{friendService: friendService}
}

// RecommendedUsersHandler handles GET /api/users.
func (h *UserHandler) RecommendedUsersHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	users, err := h.friendService.RecommendUsers(r.Context(), user.ID)
	if err != nil {
		logger.Error("fetching recommended users", zap.Uint("userId", user.ID), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, users)
}

// MyFriendsHandler handles GET /api/users/friends.
func (h *UserHandler) MyFriendsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), user.ID)
	if err != nil {
		logger.Error("fetching friends list", zap.Uint("userId", user.ID), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Friends retrieved successfully",
		"friends": friends,
	})
}

// SendFriendRequestHandler handles POST /api/users/friends-request/{id}.
func (h *UserHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	recipientID, ok := pathID(w, r)
	if !ok {
		return
	}

	request, err := h.friendService.SendRequest(r.Context(), user.ID, recipientID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfRequest),
			errors.Is(err, services.ErrAlreadyFriends),
			errors.Is(err, services.ErrDuplicateRequest):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrRecipientNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			logger.Error("sending friend request",
				zap.Uint("senderId", user.ID), zap.Uint("recipientId", recipientID), zap.Error(err))
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message": "Friend request sent successfully",
		"request": request,
	})
}

// AcceptFriendRequestHandler handles PUT /api/users/friends-request/{id}/accept.
func (h *UserHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	request, err := h.friendService.AcceptRequest(r.Context(), user.ID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotRequestRecipient):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrRequestAlreadyAccepted):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.Error("accepting friend request",
				zap.Uint("userId", user.ID), zap.Uint("requestId", requestID), zap.Error(err))
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Friend request accepted successfully",
		"request": request,
	})
}

// FriendRequestsHandler handles GET /api/users/friends-requests.
func (h *UserHandler) FriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	overview, err := h.friendService.ListRequests(r.Context(), user.ID)
	if err != nil {
		logger.Error("fetching friend requests", zap.Uint("userId", user.ID), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":  "Friend requests fetched successfully",
		"incoming": overview.Incoming,
		"accepted": overview.Accepted,
		"sent":     overview.Sent,
	})
}

// OutgoingFriendRequestsHandler handles GET /api/users/outgoing-friends-request.
func (h *UserHandler) OutgoingFriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized - User not found", http.StatusUnauthorized)
		return
	}

	outgoing, err := h.friendService.ListOutgoing(r.Context(), user.ID)
	if err != nil {
		logger.Error("fetching outgoing friend requests", zap.Uint("userId", user.ID), zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":  "Outgoing friend requests fetched successfully",
		"requests": outgoing,
	})
}

// pathID extracts the {id} path variable, writing a 400 when it is invalid.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr, ok := mux.Vars(r)["id"]
	if !ok {
		writeJSONError(w, "Missing id parameter", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		writeJSONError(w, "Invalid id parameter", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}
