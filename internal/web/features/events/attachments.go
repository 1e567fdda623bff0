package events

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// attachmentKind maps a filename extension to its kind. Anything outside
// the allow-list is rejected.
func attachmentKind(name string) (store.AttachmentKind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return store.AttachmentImage, true
	case ".pdf":
		return store.AttachmentPDF, true
	}
	return "", false
}

// Upload stores one uploaded file against an event.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(u, e) {
		ui.Error(w, r, http.StatusForbidden, u, "Seul l'auteur ou un administrateur peut joindre un fichier.")
		return
	}

	n, err := h.Store.CountAttachments(r.Context(), e.ID)
	if err != nil {
		h.Logger.Error("failed to count attachments", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if n >= store.MaxAttachmentsPerEvent {
		h.Sessions.AddFlash(w, r, session.FlashError,
			"Un événement ne peut pas avoir plus de "+strconv.Itoa(store.MaxAttachmentsPerEvent)+" pièces jointes.")
		http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, store.MaxAttachmentSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.Sessions.AddFlash(w, r, session.FlashError, "Aucun fichier reçu ou fichier trop volumineux.")
		http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
		return
	}
	defer file.Close()

	if header.Size > store.MaxAttachmentSize {
		h.Sessions.AddFlash(w, r, session.FlashError, "Le fichier dépasse la taille maximale de 10 Mio.")
		http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
		return
	}
	kind, ok := attachmentKind(header.Filename)
	if !ok {
		h.Sessions.AddFlash(w, r, session.FlashError, "Seuls les fichiers JPEG, PNG et PDF sont acceptés.")
		http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
		return
	}

	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	size, err := h.writeFile(storedName, file)
	if err != nil {
		h.Logger.Error("failed to store attachment file", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	att := &store.Attachment{
		EventID:    e.ID,
		Name:       filepath.Base(header.Filename),
		StoredName: storedName,
		Kind:       kind,
		Size:       size,
	}
	if err := h.Store.AddAttachment(r.Context(), att); err != nil {
		os.Remove(filepath.Join(h.UploadsDir, storedName))
		h.Logger.Error("failed to record attachment", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("attachment added", "event_id", e.ID, "attachment_id", att.ID,
		"name", att.Name, "size", att.Size, "by", u.ID)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Pièce jointe ajoutée.")
	http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
}

func (h *Handlers) writeFile(storedName string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(h.UploadsDir, 0o755); err != nil {
		return 0, err
	}
	dst, err := os.Create(filepath.Join(h.UploadsDir, storedName))
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	return io.Copy(dst, src)
}

func (h *Handlers) attachmentFromPath(w http.ResponseWriter, r *http.Request, e *store.Event) (*store.Attachment, bool) {
	u := session.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "att"), 10, 64)
	if err != nil {
		ui.Error(w, r, http.StatusNotFound, u, "Pièce jointe introuvable.")
		return nil, false
	}
	att, err := h.Store.GetAttachment(r.Context(), id)
	if err == nil && att.EventID != e.ID {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Pièce jointe introuvable.")
		} else {
			h.Logger.Error("failed to get attachment", "attachment_id", id, "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		}
		return nil, false
	}
	return att, true
}

// Download serves an attachment file under its original name.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}
	att, ok := h.attachmentFromPath(w, r, e)
	if !ok {
		return
	}

	w.Header().Set("Content-Disposition", `inline; filename="`+strings.ReplaceAll(att.Name, `"`, "")+`"`)
	http.ServeFile(w, r, filepath.Join(h.UploadsDir, att.StoredName))
}

// DeleteAttachment removes the record and its file.
func (h *Handlers) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(u, e) {
		ui.Error(w, r, http.StatusForbidden, u, "Seul l'auteur ou un administrateur peut supprimer une pièce jointe.")
		return
	}
	att, ok := h.attachmentFromPath(w, r, e)
	if !ok {
		return
	}

	if err := h.Store.DeleteAttachment(r.Context(), att.ID); err != nil {
		h.Logger.Error("failed to delete attachment", "attachment_id", att.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if err := os.Remove(filepath.Join(h.UploadsDir, att.StoredName)); err != nil && !os.IsNotExist(err) {
		h.Logger.Warn("failed to remove attachment file", "file", att.StoredName, "error", err)
	}

	h.Logger.Info("attachment deleted", "event_id", e.ID, "attachment_id", att.ID, "by", u.ID)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Pièce jointe supprimée.")
	http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
}

// removeFiles deletes attachment files after their event is gone.
func (h *Handlers) removeFiles(atts []*store.Attachment) {
	for _, a := range atts {
		if err := os.Remove(filepath.Join(h.UploadsDir, a.StoredName)); err != nil && !os.IsNotExist(err) {
			h.Logger.Warn("failed to remove attachment file", "file", a.StoredName, "error", err)
		}
	}
}
