package http

import (
	"net/http"
	"net/url"

	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/settings"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.subs.List(c))
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sub, err := s.subs.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/subscriptions/"+url.PathEscape(sub.ID))
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sub, err := s.subs.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSubscriptions(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.subs.Document(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.DocumentContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.subs.PDF(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAttachment(w, export.PDFContentType, name, data)
}

// handleExportCSV downloads the records matching the list filters. An empty
// result is a 422 warning rather than an empty file.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, name, err := s.subs.ExportCSV(c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAttachment(w, export.CSVContentType+"; charset=utf-8", name, data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.subs.Dashboard())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	saved, _, err := s.settings.Save(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type notificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleSetNotifications(w http.ResponseWriter, r *http.Request) {
	var req notificationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		s.writeError(w, r, &core.ValidationError{Field: "enabled", Reason: core.ReasonMissing})
		return
	}
	saved, err := s.settings.SetNotifications(r.Context(), *req.Enabled)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
