package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lodge_archive/internal/api/middleware"
	"lodge_archive/internal/app/service"
	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
)

type WorkHandler struct {
	workService    *service.WorkService
	maxUploadBytes int64
}

func NewWorkHandler(workService *service.WorkService, maxUploadBytes int64) *WorkHandler {
	return &WorkHandler{workService: workService, maxUploadBytes: maxUploadBytes}
}

func (h *WorkHandler) RegisterRoutes(r chi.Router) {
	r.Get("/works", h.listAccessible)
	r.Get("/works/{level}", h.listByTier)
	r.Get("/users-with-works", h.usersWithWorks)
	r.Post("/upload-work/{level}", h.upload)
	r.Get("/work-file/{workID}", h.view)
	r.Get("/download-work/{workID}", h.download)
	r.Delete("/delete-work/{workID}", h.delete)
}

func (h *WorkHandler) listAccessible(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	grouped, err := h.workService.ListAccessible(r.Context(), user)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, grouped)
}

func (h *WorkHandler) listByTier(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid level")
		return
	}

	works, err := h.workService.ListByTier(r.Context(), user, model.Tier(level))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, works)
}

func (h *WorkHandler) usersWithWorks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.workService.UsersWithWorks(r.Context(), user, page, limit)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *WorkHandler) upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid level")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "A file is required")
		return
	}
	defer file.Close()

	title := r.URL.Query().Get("title")
	if title == "" {
		title = r.FormValue("title")
	}

	work, err := h.workService.Upload(r.Context(), user, service.UploadRequest{
		Tier:     model.Tier(level),
		Title:    title,
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "File uploaded successfully",
		"file_id": work.ID,
	})
}

func (h *WorkHandler) view(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *WorkHandler) download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

func (h *WorkHandler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	work, body, err := h.workService.Open(r.Context(), user, chi.URLParam(r, "workID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("%s; filename=%q", disposition, service.DownloadFilename(work)))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

func (h *WorkHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.workService.Delete(r.Context(), user, chi.URLParam(r, "workID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
