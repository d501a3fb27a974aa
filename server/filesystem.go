package server

import (
	"io/fs"
	"mime"
	"net/http"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/pathutil"
	"github.com/go-chi/chi/v5"
)

// statusResponse is the body of a successful write to /filesystem.
type statusResponse struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Browse lists the directory at the request path as a JSON array of paths.
// With Accept: application/octet-stream it downloads the path instead: a
// file as is, a directory as a gzip tar.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	p := resourcePath(r)
	session := h.files.As(userFromContext(r.Context()))

	switch acceptedType(r) {
	case "application/json":
		entries, err := session.List(p, false)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		JSON(w, http.StatusOK, paths)

	case "application/octet-stream":
		e, err := session.Stat(p)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		if e.IsFile {
			h.serveFile(w, r, session, p, true)
			return
		}
		h.sendArchive(w, r, session, []string{p}, archiveName(e))

	default:
		h.Error(w, r, webfm.InvalidInputError("browse", p, "unsupported accept header"))
	}
}

// CreateFiles writes the files parts into the directory at the request
// path. Nothing is written if any of them already exists.
func (h *Handler) CreateFiles(w http.ResponseWriter, r *http.Request) {
	if !h.writeFiles(w, r, false) {
		return
	}
	JSON(w, http.StatusCreated, statusResponse{Code: http.StatusCreated, Reason: http.StatusText(http.StatusCreated)})
}

// UpdateFiles replaces files in the directory at the request path. Nothing
// is written unless all of them already exist.
func (h *Handler) UpdateFiles(w http.ResponseWriter, r *http.Request) {
	if !h.writeFiles(w, r, true) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFile removes the file at the request path. Directories are refused.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	p := resourcePath(r)
	session := h.files.As(userFromContext(r.Context()))

	e, err := session.Stat(p)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if !e.IsFile {
		h.Error(w, r, &webfm.Error{Kind: webfm.IsADirectory, Op: "delete", Path: p})
		return
	}
	if err := session.Remove(p); err != nil {
		h.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeFiles stores every files part and reports whether it succeeded. On
// failure the error response has been written.
func (h *Handler) writeFiles(w http.ResponseWriter, r *http.Request, update bool) bool {
	op := "create"
	if update {
		op = "update"
	}
	dir := resourcePath(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.Error(w, r, bodyError(err))
		return false
	}
	defer r.MultipartForm.RemoveAll() // nolint:errcheck

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		h.Error(w, r, webfm.InvalidInputError(op, dir, "missing files"))
		return false
	}
	session := h.files.As(userFromContext(r.Context()))

	for _, part := range parts {
		name := pathutil.SanitizeName(part.Filename)
		if name == "" {
			h.Error(w, r, webfm.InvalidInputError(op, dir, "invalid file name"))
			return false
		}
		p := pathutil.Join(dir, name)
		exists, err := session.Exists(p)
		if err != nil {
			h.Error(w, r, err)
			return false
		}
		switch {
		case update && !exists:
			h.Error(w, r, &webfm.Error{Kind: webfm.NotFound, Op: op, Path: p, Err: fs.ErrNotExist})
			return false
		case !update && exists:
			h.Error(w, r, &webfm.Error{Kind: webfm.AlreadyExists, Op: op, Path: p, Err: fs.ErrExist})
			return false
		}
	}

	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			h.Error(w, r, webfm.Classify(op, dir, err))
			return false
		}
		_, n, err := session.SaveUpload(dir, part.Filename, f, update)
		f.Close()
		if err != nil {
			h.Error(w, r, err)
			return false
		}
		h.metrics.Transfer(metrics.Upload, n)
	}
	return true
}

func resourcePath(r *http.Request) string {
	return pathutil.Normalize(chi.URLParam(r, "*"))
}

// acceptedType returns the media type the client asked for. No preference
// means JSON.
func acceptedType(r *http.Request) string {
	accept := r.Header.Get("Accept")
	if accept == "" || accept == "*/*" {
		return "application/json"
	}
	mt, _, err := mime.ParseMediaType(accept)
	if err != nil {
		return ""
	}
	return mt
}
