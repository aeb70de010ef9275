package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RoyalIcing/datadown-preview/internal/document"
	"github.com/RoyalIcing/datadown-preview/internal/form"
	"github.com/RoyalIcing/datadown-preview/internal/rpc"
	"github.com/RoyalIcing/datadown-preview/internal/session"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"documents": s.sessions.Keys()})
}

// routeDocument handles GET /api/documents/{key...}[/resolved|/model|/live].
// Document keys may contain slashes, so the action is the recognized suffix.
func (s *Server) routeDocument(w http.ResponseWriter, r *http.Request) {
	full := chi.URLParam(r, "*")
	switch {
	case strings.HasSuffix(full, "/resolved"):
		s.withSession(w, strings.TrimSuffix(full, "/resolved"), s.handleResolved)
	case strings.HasSuffix(full, "/model"):
		s.withSession(w, strings.TrimSuffix(full, "/model"), s.handleModel)
	case strings.HasSuffix(full, "/live"):
		s.withSession(w, strings.TrimSuffix(full, "/live"), func(w http.ResponseWriter, sess *session.Session) {
			s.handleLive(w, r, sess)
		})
	default:
		s.withSession(w, full, s.handleDocument)
	}
}

func (s *Server) routeDocumentPut(w http.ResponseWriter, r *http.Request) {
	full := chi.URLParam(r, "*")
	key, fieldPath, ok := strings.Cut(full, "/fields/")
	if !ok {
		jsonError(w, "unknown action", http.StatusNotFound)
		return
	}
	s.withSession(w, key, func(w http.ResponseWriter, sess *session.Session) {
		s.handleSetField(w, r, sess, fieldPath)
	})
}

func (s *Server) routeDocumentPost(w http.ResponseWriter, r *http.Request) {
	full := chi.URLParam(r, "*")
	key, ok := strings.CutSuffix(full, "/mutations")
	if !ok {
		jsonError(w, "unknown action", http.StatusNotFound)
		return
	}
	s.withSession(w, key, func(w http.ResponseWriter, sess *session.Session) {
		s.handleApplyMutation(w, r, sess)
	})
}

func (s *Server) routeDocumentDelete(w http.ResponseWriter, r *http.Request) {
	full := chi.URLParam(r, "*")
	key, ok := strings.CutSuffix(full, "/mutations")
	if !ok {
		jsonError(w, "unknown action", http.StatusNotFound)
		return
	}
	s.withSession(w, key, func(w http.ResponseWriter, sess *session.Session) {
		s.handleTruncateHistory(w, r, sess)
	})
}

func (s *Server) withSession(w http.ResponseWriter, key string, handler func(http.ResponseWriter, *session.Session)) {
	sess := s.sessions.Get(key)
	if sess == nil {
		jsonError(w, "unknown document: "+key, http.StatusNotFound)
		return
	}
	handler(w, sess)
}

func (s *Server) handleDocument(w http.ResponseWriter, sess *session.Session) {
	doc := sess.Document()
	writeJSON(w, map[string]any{
		"key":    sess.Key(),
		"title":  doc.Title,
		"source": sess.Source(),
		"parsed": parsedJSON(doc),
	})
}

func (s *Server) handleResolved(w http.ResponseWriter, sess *session.Session) {
	resolved := s.resolveAndDispatch(sess)

	pending := make([]map[string]any, 0, len(resolved.Requests))
	for _, req := range resolved.Requests {
		pending = append(pending, req.JSON())
	}
	writeJSON(w, map[string]any{
		"key":      sess.Key(),
		"resolved": resolved.JSON(),
		"requests": pending,
	})
}

func (s *Server) handleModel(w http.ResponseWriter, sess *session.Session) {
	model := sess.Model()
	writeJSON(w, map[string]any{
		"key":       sess.Key(),
		"fields":    fieldsJSON(model.Fields),
		"mutations": model.Mutations,
		"history":   model.History,
	})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request, sess *session.Session, fieldPath string) {
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess.SetField(fieldPath, body.Value)
	s.handleResolved(w, sess)
}

func (s *Server) handleApplyMutation(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		jsonError(w, "mutation name is required", http.StatusBadRequest)
		return
	}
	sess.ApplyMutation(body.Name)
	s.handleModel(w, sess)
}

func (s *Server) handleTruncateHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	keep, err := strconv.Atoi(r.URL.Query().Get("keep"))
	if err != nil || keep < 0 {
		jsonError(w, "keep query parameter is required", http.StatusBadRequest)
		return
	}
	sess.TruncateHistory(keep)
	s.handleModel(w, sess)
}

// handleDeliverResponse lets an external network collaborator deliver a
// remote-call response for a document's table.
func (s *Server) handleDeliverResponse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Document string           `json:"document"`
		ID       string           `json:"id"`
		Result   any              `json:"result"`
		Error    *rpc.ErrorObject `json:"error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		jsonError(w, "response id is required", http.StatusBadRequest)
		return
	}
	s.withSession(w, body.Document, func(w http.ResponseWriter, sess *session.Session) {
		sess.DeliverResponse(rpc.Response{ID: body.ID, Result: body.Result, Error: body.Error})
		writeJSON(w, map[string]any{"delivered": body.ID})
	})
}

func fieldsJSON(fields []form.Field) []any {
	out := make([]any, 0, len(fields))
	for _, field := range fields {
		m := map[string]any{
			"name":  field.Name,
			"kind":  field.Kind,
			"value": fieldValueJSON(field.Value),
		}
		if len(field.Choices) > 0 {
			m["choices"] = field.Choices
		}
		if field.Err != nil {
			m["error"] = field.Err.Error()
		}
		if len(field.Args) > 0 {
			m["args"] = fieldsJSON(field.Args)
		}
		out = append(out, m)
	}
	return out
}

func fieldValueJSON(v form.Value) any {
	switch v := v.(type) {
	case form.Text:
		return string(v)
	case form.Number:
		return int(v)
	case form.Bool:
		return bool(v)
	case form.TextList:
		return []string(v)
	}
	return nil
}

func parsedJSON(doc *document.Document) map[string]any {
	return map[string]any{
		"title":    doc.Title,
		"intro":    contentKinds(doc.Intro),
		"sections": parsedSections(doc.Sections),
	}
}

func parsedSections(sections []document.Section) []any {
	out := make([]any, 0, len(sections))
	for _, sec := range sections {
		out = append(out, map[string]any{
			"title":    sec.Title,
			"content":  contentKinds(sec.Content),
			"sections": parsedSections(sec.Sections),
		})
	}
	return out
}

func contentKinds(content []document.Content) []string {
	kinds := make([]string, 0, len(content))
	for _, c := range content {
		kinds = append(kinds, c.Kind.String())
	}
	return kinds
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
