package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/thywilljoshua/docanalyzer/internal/analyze"
	"github.com/thywilljoshua/docanalyzer/internal/session"
)

type pageData struct {
	Session      *session.Session
	HasText      bool
	Summary      template.HTML
	Question     string
	Answer       *analyze.Answer
	Error        string
	OCRAvailable bool
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	data.OCRAvailable = s.extractor.OCRAvailable()
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("render page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// current loads the cookie's session into a fresh pageData, including the
// cached summary if there is one.
func (s *Server) current(w http.ResponseWriter, r *http.Request) (pageData, error) {
	sess, err := s.sessionFromCookie(w, r)
	if errors.Is(err, session.ErrNotFound) {
		return pageData{}, nil
	}
	if err != nil {
		return pageData{}, err
	}
	data := pageData{Session: &sess, HasText: hasText(sess.Text)}
	if sess.Summary != nil {
		data.Summary = s.markdown(*sess.Summary)
	}
	return data, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.current(w, r)
	if err != nil {
		s.fail(w, data, err)
		return
	}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var prevID string
	if c, err := r.Cookie(cookieName); err == nil {
		prevID = c.Value
	}
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, pageData{}, err)
		return
	}
	sess, err := s.ingest(r.Context(), doc)
	if err != nil {
		s.fail(w, pageData{}, err)
		return
	}
	if prevID != "" {
		if err := s.store.Delete(r.Context(), prevID); err != nil && !errors.Is(err, session.ErrNotFound) {
			s.logger.Warn("drop previous session", "session", prevID, "err", err)
		}
	}
	s.setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromCookie(w, r)
	if errors.Is(err, session.ErrNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.fail(w, pageData{}, err)
		return
	}
	if _, _, err := s.summary(r.Context(), sess, true); err != nil {
		data, _ := s.current(w, r)
		s.fail(w, data, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	data, err := s.current(w, r)
	if err != nil {
		s.fail(w, data, err)
		return
	}
	if data.Session == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data.Question = r.PostFormValue("question")
	ans, err := s.answer(r.Context(), *data.Session, data.Question)
	if err != nil {
		s.fail(w, data, err)
		return
	}
	if ans.Route == analyze.RouteSummary {
		// the summary may have just been computed and cached
		if data.Summary == "" {
			data.Summary = s.markdown(ans.Text)
		}
	}
	data.Answer = &ans
	s.render(w, http.StatusOK, data)
}

func (s *Server) fail(w http.ResponseWriter, data pageData, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	data.Error = userMessage(err)
	s.render(w, status, data)
}
