package handler

import (
	"net/http"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
)

type FriendHandler struct {
	friendshipService *service.FriendshipService
}

func NewFriendHandler(friendshipService *service.FriendshipService) *FriendHandler {
	return &FriendHandler{friendshipService: friendshipService}
}

type friendsResponse struct {
	Friends []*model.Friend `json:"friends"`
	Pending []*model.Friend `json:"pending"`
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	friends, err := h.friendshipService.Friends(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pending, err := h.friendshipService.Pending(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, friendsResponse{Friends: friends, Pending: pending})
}

func (h *FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.friendshipService.Pending(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, pending)
}

func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	friendship, err := h.friendshipService.Request(userID(r), req.Username)
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if friendship.Status == model.FriendshipAccepted {
		status = http.StatusOK
	}
	render.JSON(w, status, friendship)
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	err := h.friendshipService.Accept(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	err := h.friendshipService.Decline(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.friendshipService.Remove(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

type BadgeHandler struct {
	gamificationService *service.GamificationService
}

func NewBadgeHandler(gamificationService *service.GamificationService) *BadgeHandler {
	return &BadgeHandler{gamificationService: gamificationService}
}

type badgesResponse struct {
	Stats     *model.UserStats   `json:"stats"`
	Earned    []*model.UserBadge `json:"earned"`
	Available []string           `json:"available"`
}

// List reports stats with earned badges and the full badge catalogue.
func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	stats, err := h.gamificationService.Stats(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	earned, err := h.gamificationService.Badges(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, badgesResponse{Stats: stats, Earned: earned, Available: service.BadgeNames()})
}
