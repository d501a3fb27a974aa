package server

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/fsops"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/requests"
)

// maxActionBody bounds JSON action and download bodies.
const maxActionBody = 1 << 20

// multipartMemory is how much of an upload is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Actions decodes a JSON action and runs it. Conflicts are part of a
// successful result; other failures render as an error body.
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err != nil {
		h.Error(w, r, bodyError(err))
		return
	}
	action, err := requests.UnmarshalAction(body)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	res, err := h.exec.Do(r.Context(), userFromContext(r.Context()), action)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Upload saves or removes uploaded files. Every uploadFiles part is written
// to path; the first failure stops the rest.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.Error(w, r, bodyError(err))
		return
	}
	defer r.MultipartForm.RemoveAll() // nolint:errcheck

	dto, err := requests.UnmarshalUpload(r.MultipartForm.Value)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	session := h.files.As(userFromContext(r.Context()))

	if dto.Action == "remove" {
		if err := session.RemoveUpload(dto.Path, dto.CancelUploading); err != nil {
			h.Error(w, r, err)
			return
		}
		JSON(w, http.StatusOK, webfm.NewResult())
		return
	}

	parts := r.MultipartForm.File["uploadFiles"]
	if len(parts) == 0 {
		h.Error(w, r, webfm.InvalidInputError("upload", dto.Path, "no uploadFiles part"))
		return
	}
	res := webfm.NewResult()
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			h.Error(w, r, webfm.Classify("upload", dto.Path, err))
			return
		}
		entry, n, err := session.SaveUpload(dto.Path, part.Filename, f, dto.Overwrite)
		f.Close()
		if err != nil {
			h.Error(w, r, err)
			return
		}
		h.metrics.Transfer(metrics.Upload, n)
		res.Files = append(res.Files, entry)
	}
	JSON(w, http.StatusOK, res)
}

// Download sends the entries named by the downloadInput form field. A single
// regular file is sent as is; anything else is sent as a gzip tar.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxActionBody)
	// clients send either urlencoded or multipart forms
	if err := r.ParseMultipartForm(maxActionBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.Error(w, r, bodyError(err))
		return
	}
	paths, err := requests.UnmarshalDownload([]byte(r.PostForm.Get("downloadInput")))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	session := h.files.As(userFromContext(r.Context()))

	// stat everything first; once the archive starts the status is sent
	entries := make([]webfm.FileEntry, 0, len(paths))
	for _, p := range paths {
		e, err := session.Stat(p)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		entries = append(entries, e)
	}

	if len(entries) == 1 && entries[0].IsFile {
		h.serveFile(w, r, session, entries[0].Path, true)
		return
	}

	name := "files.tar.gz"
	if len(entries) == 1 {
		name = archiveName(entries[0])
	}
	h.sendArchive(w, r, session, paths, name)
}

// Images serves the file at the path query parameter inline.
func (h *Handler) Images(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		h.Error(w, r, webfm.InvalidInputError("images", "", "missing path"))
		return
	}
	session := h.files.As(userFromContext(r.Context()))
	h.serveFile(w, r, session, p, false)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, session *fsops.Session, p string, attachment bool) {
	f, err := session.Open(p)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", f.MIME)
	if attachment {
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": f.Entry.Name}))
	}
	http.ServeContent(w, r, f.Entry.Name, f.Entry.DateModified, f)
	h.metrics.Transfer(metrics.Download, f.Entry.Size)
}

// sendArchive streams paths as a gzip tar attachment called name.
func (h *Handler) sendArchive(w http.ResponseWriter, r *http.Request, session *fsops.Session, paths []string, name string) {
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))

	cw := &countingWriter{w: w}
	if err := session.Archive(cw, paths); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			h.Error(w, r, err)
			return
		}
		// the response is already streaming; drop the connection
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("Archive failed mid-stream")
		panic(http.ErrAbortHandler)
	}
	h.metrics.Transfer(metrics.Download, cw.n)
}

func archiveName(e webfm.FileEntry) string {
	if e.Name == "" {
		return "root.tar.gz"
	}
	return e.Name + ".tar.gz"
}

// bodyError classifies failures reading a request body.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return webfm.InvalidInputError("read body", "", "request body too large")
	}
	return webfm.InvalidInputError("read body", "", err.Error())
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
