package handler

import (
	"log/slog"
	"net/http"

	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
	"github.com/korusync/korusync/internal/validation"
)

// maxAvatarForm leaves room for multipart framing around a maximum size avatar.
const maxAvatarForm = validation.MaxAvatarSize + 1<<20

type AccountHandler struct {
	userService *service.UserService
	fileService *service.FileService
	sessions    *service.SessionService
}

func NewAccountHandler(userService *service.UserService, fileService *service.FileService, sessions *service.SessionService) *AccountHandler {
	return &AccountHandler{
		userService: userService,
		fileService: fileService,
		sessions:    sessions,
	}
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.userService.ByID(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	err = h.userService.UpdatePassword(user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Every session was revoked; keep this browser signed in.
	err = startSession(w, r, h.sessions, user)
	if err != nil {
		slog.Error("failed to restart session after password change", "error", err, "user_id", user.ID)
		h.sessions.ClearSessionCookies(w)
	}
	render.NoContent(w)
}

// DeleteAccount removes the account and everything it owns, then signs out.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	err := h.userService.DeleteAccount(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.sessions.ClearSessionCookies(w)
	render.NoContent(w)
}

// UploadAvatar reads the multipart field "avatar" and replaces any
// existing avatar.
func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarForm)

	err := r.ParseMultipartForm(maxAvatarForm)
	if err != nil {
		respondError(w, r, validation.ErrFileTooLarge)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	f, header, err := r.FormFile("avatar")
	if err != nil {
		render.Error(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	// The service reopens the upload from its header.
	_ = f.Close()

	file, err := h.fileService.UploadAvatar(id, header)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, map[string]string{
		"id":  file.ID,
		"url": h.fileService.URL(file),
	})
}

func (h *AccountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	err := h.fileService.DeleteUserAvatar(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}
