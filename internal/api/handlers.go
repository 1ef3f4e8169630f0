package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborapp/harbor/internal/events"
	"github.com/harborapp/harbor/internal/importer"
	"github.com/harborapp/harbor/internal/inbox"
	"github.com/harborapp/harbor/internal/share"
)

// importRequest is the bulk import entrypoint payload. Content carries
// the raw export file; the filename is an optional parser hint.
type importRequest struct {
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	res, err := importer.Import([]byte(req.Content), req.Filename)
	if err != nil {
		if errors.Is(err, importer.ErrMalformedInput) {
			respondError(w, http.StatusBadRequest, "%v", err)
			return
		}
		s.logger.Error("import failed", "error", err)
		respondError(w, http.StatusInternalServerError, "import failed")
		return
	}

	s.logger.Info("import completed",
		"source", res.Source,
		"chats", len(res.Chats),
		"warnings", len(res.Warnings),
	)
	if err := s.events.Publish(events.SubjectImportCompleted, events.ImportCompleted{
		Source:   res.Source,
		Chats:    len(res.Chats),
		Warnings: len(res.Warnings),
	}); err != nil {
		s.logger.Warn("failed to publish import event", "error", err)
	}

	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "read body: %v", err)
		return
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}

	sub, err := share.Normalize(body)
	if err != nil {
		if errors.Is(err, share.ErrUnresolvedContent) {
			respondError(w, http.StatusBadRequest, "%v", err)
			return
		}
		s.logger.Error("share normalization failed", "error", err)
		respondError(w, http.StatusInternalServerError, "share failed")
		return
	}

	item := s.inbox.Create(r.Context(), inbox.NewItem(
		sub.Source, sub.Title, sub.Content, sub.URL, sub.Author, sub.Tags,
	))
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	var status *inbox.Status
	if q := r.URL.Query().Get("status"); q != "" {
		st := inbox.Status(q)
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "unknown status %q", q)
			return
		}
		status = &st
	}
	items := s.inbox.List(r.Context(), status)
	respondJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.inbox.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, inbox.ErrNotFound) {
			respondError(w, http.StatusNotFound, "item not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// patchRequest is the PATCH-style partial update payload.
type patchRequest struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	URL     *string   `json:"url,omitempty"`
	Author  *string   `json:"author,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Status  *string   `json:"status,omitempty"`
	Action  *struct {
		Type string `json:"type"`
		Note string `json:"note,omitempty"`
	} `json:"action,omitempty"`
}

func (s *Server) patchItem(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}

	upd := inbox.Update{
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
		Author:  req.Author,
		Tags:    req.Tags,
	}
	if req.Status != nil {
		st := inbox.Status(*req.Status)
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "unknown status %q", *req.Status)
			return
		}
		upd.Status = &st
	}
	if req.Action != nil {
		et := inbox.EntryType(req.Action.Type)
		if !et.Valid() || et == inbox.EntryCreated {
			respondError(w, http.StatusBadRequest, "unknown action type %q", req.Action.Type)
			return
		}
		upd.Action = &inbox.Action{Type: et, Note: req.Action.Note}
	}

	item, err := s.inbox.Apply(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		if errors.Is(err, inbox.ErrNotFound) {
			respondError(w, http.StatusNotFound, "item not found")
			return
		}
		s.logger.Error("update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	err := s.inbox.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, inbox.ErrNotFound) {
			respondError(w, http.StatusNotFound, "item not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
