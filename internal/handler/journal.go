package handler

import (
	"io"
	"net/http"

	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
)

type JournalHandler struct {
	journalService *service.JournalService
}

func NewJournalHandler(journalService *service.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

// List filters by local dates ?from= and ?to= (YYYY-MM-DD), both optional.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	entries, err := h.journalService.Entries(userID(r), q.Get("from"), q.Get("to"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, entries)
}

// Get includes the content rendered to HTML.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalService.ByID(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.JournalInput
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := h.journalService.Create(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, entry)
}

func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.JournalUpdate
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := h.journalService.Update(userID(r), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.journalService.Delete(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

// Import reads a markdown file from the multipart field "file".
func (h *JournalHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxJournalImport+64<<10)

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Error(w, http.StatusBadRequest, "a markdown file is required")
		return
	}
	defer file.Close()

	// One byte over the limit is enough to reject the file.
	source, err := io.ReadAll(io.LimitReader(file, service.MaxJournalImport+1))
	if err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := h.journalService.Import(userID(r), header.Filename, source)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, entry)
}
