package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/pkg/logger"
)

// UploadDependencies accepts result files for asynchronous ingestion.
type UploadDependencies interface {
	// SubmitUpload queues a file. It reports duplicate content instead of
	// queueing it twice.
	SubmitUpload(ctx context.Context, name string, body []byte, run int, location string) (model.Upload, bool, error)
}

// UploadsHandler handles result file uploads.
type UploadsHandler struct {
	deps     UploadDependencies
	maxBytes int64
	logger   logger.Logger
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(deps UploadDependencies, maxBytes int64, l logger.Logger) *UploadsHandler {
	return &UploadsHandler{deps: deps, maxBytes: maxBytes, logger: l}
}

// HandleUpload handles POST /api/uploads?name=<file>[&run=1|2&location=...]
// with the raw CSV export as the body.
func (h *UploadsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_upload"
	q := r.URL.Query()

	run := 0
	if s := q.Get("run"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		run = n
	}

	// oversized bodies fail here before the whole file is buffered
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	u, duplicate, err := h.deps.SubmitUpload(r.Context(), q.Get("name"), body, run, q.Get("location"))
	if err != nil {
		h.logger.Warn(r.Context(), "upload rejected",
			logger.String("name", q.Get("name")),
			logger.Error(err),
		)
		writeServiceError(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, uploadResponse{Status: "duplicate", Duplicate: true, Digest: u.Digest})
		return
	}
	writeJSON(w, http.StatusAccepted, uploadResponse{Status: "accepted", ID: u.ID, Digest: u.Digest})
}
