package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/docanalyzer/internal/analyze"
	"github.com/thywilljoshua/docanalyzer/internal/extract"
	"github.com/thywilljoshua/docanalyzer/internal/session"
)

var (
	errTooLarge        = errors.New("file is too large")
	errBadUpload       = errors.New("malformed upload")
	errNoFile          = errors.New(`missing upload field "file"`)
	errUnsupportedFile = errors.New("unsupported file type: upload a pdf, png, jpg or jpeg file")
	errNoText          = errors.New("no text could be extracted from this document")
)

// acceptedExt mirrors the file picker's accept list.
var acceptedExt = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (extract.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return extract.Document{}, errTooLarge
		}
		return extract.Document{}, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return extract.Document{}, errNoFile
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	if !acceptedExt[strings.ToLower(filepath.Ext(name))] {
		return extract.Document{}, errUnsupportedFile
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return extract.Document{}, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		ct = extract.DetectContentType(name, data)
	}
	return extract.Document{Data: data, ContentType: ct, Filename: name}, nil
}

// ingest extracts doc and stores it as a new session.
func (s *Server) ingest(ctx context.Context, doc extract.Document) (session.Session, error) {
	res, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := s.store.Create(ctx, session.Session{
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Extractor:   res.Extractor,
		Text:        res.Text,
	})
	if err != nil {
		return session.Session{}, err
	}
	s.logger.Info("document ingested",
		"session", sess.ID, "file", doc.Filename, "extractor", res.Extractor, "chars", len(res.Text))
	return sess, nil
}

// summary returns the session's cached summary, or generates and caches a new
// one. Concurrent requests for the same session share one model call.
func (s *Server) summary(ctx context.Context, sess session.Session, regenerate bool) (analyze.Summary, bool, error) {
	if strings.TrimSpace(sess.Text) == "" {
		return analyze.Summary{}, false, errNoText
	}
	if !regenerate && sess.Summary != nil {
		return analyze.Summary{
			Text:     *sess.Summary,
			Fallback: *sess.Summary == s.analyzer.Options().FallbackSummary,
		}, true, nil
	}
	v, err, _ := s.flight.Do(sess.ID, func() (any, error) {
		// Shared by every waiter, so one client going away must not cancel
		// it. The analyzer's model timeout still bounds the call.
		fctx := context.WithoutCancel(ctx)
		sum, err := s.analyzer.Summarize(fctx, sess.Text)
		if err != nil {
			return nil, err
		}
		// Only a successful run replaces the cached summary.
		if err := s.store.SetSummary(fctx, sess.ID, sum.Text); err != nil {
			return nil, err
		}
		return sum, nil
	})
	if err != nil {
		return analyze.Summary{}, false, err
	}
	return v.(analyze.Summary), false, nil
}

// answer routes question the way analyze.RouteFor says, reusing the cached
// summary on the summary route.
func (s *Server) answer(ctx context.Context, sess session.Session, question string) (analyze.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return analyze.Answer{}, analyze.ErrEmptyQuestion
	}
	if strings.TrimSpace(sess.Text) == "" {
		return analyze.Answer{}, errNoText
	}
	if analyze.RouteFor(question) == analyze.RouteSummary {
		sum, _, err := s.summary(ctx, sess, false)
		if err != nil {
			return analyze.Answer{}, err
		}
		return analyze.Answer{Text: sum.Text, Route: analyze.RouteSummary, Found: !sum.Fallback}, nil
	}
	return s.analyzer.Answer(ctx, sess.Text, question)
}

// sessionFromCookie loads the cookie's session, marks it as used and renews
// the cookie so both expire together.
func (s *Server) sessionFromCookie(w http.ResponseWriter, r *http.Request) (session.Session, error) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return session.Session{}, session.ErrNotFound
	}
	sess, err := s.store.Get(r.Context(), c.Value)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.store.Touch(r.Context(), sess.ID); err != nil {
		s.logger.Debug("touch session", "session", sess.ID, "err", err)
	}
	s.setSessionCookie(w, sess.ID)
	return sess, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile),
		errors.Is(err, errBadUpload),
		errors.Is(err, errUnsupportedFile),
		errors.Is(err, analyze.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extract.ErrOCRUnavailable),
		errors.Is(err, extract.ErrInvalidImage),
		errors.Is(err, extract.ErrInvalidPDF),
		errors.Is(err, errNoText):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// userMessage hides internal failures behind a generic message.
func userMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "something went wrong while processing the document"
	}
	return err.Error()
}
