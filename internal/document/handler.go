package document

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sistema-orcamento/orcamento/internal/platform/httpx"
)

// ArchiveLinker issues temporary download links for archived documents.
type ArchiveLinker interface {
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const archiveLinkTTL = 15 * time.Minute

type Handler struct {
	logger  *slog.Logger
	service *Service
	archive ArchiveLinker
}

// NewHandler builds the document handler. archive may be nil when no object store is configured.
func NewHandler(logger *slog.Logger, service *Service, archive ArchiveLinker) *Handler {
	return &Handler{logger: logger, service: service, archive: archive}
}

func (h *Handler) ShowView(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	v, _, err := h.service.View(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) ShowHTML(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	html, err := h.service.HTML(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (h *Handler) ShowPDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	pdf, _, err := h.service.PDF(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=orcamento-"+Number(id)+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ShowArchive returns a presigned link to the PDF archived for the current revision.
func (h *Handler) ShowArchive(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if h.archive == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Archive Unavailable", "document archive is not configured")
		return
	}
	_, q, err := h.service.View(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	key := ArchiveKey(q.ID, q.Revision)
	url, err := h.archive.PresignedGet(r.Context(), key, archiveLinkTTL)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"key":        key,
		"url":        url,
		"expires_in": int(archiveLinkTTL.Seconds()),
	})
}
