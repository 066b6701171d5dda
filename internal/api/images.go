package api

import (
	"io"
	"net/http"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadImage handles POST /api/novels/{id}/images (multipart/form-data,
// field "file"). The file is stored under the project's resources/images
// folder with a generated name that keeps the original extension.
//
//	@Summary		Upload an image into a project
//	@Tags			novels
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Novel ID"
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	path, err := h.repos.Novels.SaveImage(r.Context(), idParam(r), header.Filename, data)
	if err != nil {
		h.writeError(w, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, ImageUploadResponse{Path: path, Size: int64(len(data))})
}
