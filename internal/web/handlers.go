package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"blogweb/internal/blogapi"
	"blogweb/internal/config"
	"blogweb/internal/content"
	"blogweb/internal/eventlog"
	"blogweb/internal/forms"
	"blogweb/internal/session"
	"blogweb/middleware"
	"blogweb/models"

	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

const (
	connectionErrorMessage = "Could not reach the server. Please try again."
	genericErrorMessage    = "Something went wrong."
	excerptLength          = 200
	activityLimit          = 20
)

type WebHandler struct {
	api             *blogapi.Client
	sessions        *session.Store
	monitor         *session.Monitor
	eventLogService *eventlog.EventLogService
	middleware      *middleware.Middleware
	pages           map[string]*template.Template
	config          *config.Config
	logger          *zap.SugaredLogger
}

type PageData struct {
	Page       string
	Title      string
	User       *models.UserInfo
	Notices    []session.Notice
	HideChrome bool
	Errors     forms.Errors
	Form       map[string]string
	Query      string
	Article    *models.Article
	Articles   []models.Article
	EventLogs  []*models.EventLog
	ResetToken string
	Year       int
}

func NewWebHandler(
	api *blogapi.Client,
	sessions *session.Store,
	monitor *session.Monitor,
	eventLogService *eventlog.EventLogService,
	cfg *config.Config,
	logger *zap.SugaredLogger,
) (*WebHandler, error) {
	pages, err := parsePages(templateFS)
	if err != nil {
		return nil, err
	}

	return &WebHandler{
		api:             api,
		sessions:        sessions,
		monitor:         monitor,
		eventLogService: eventLogService,
		middleware:      middleware.NewMiddleware(sessions, logger),
		pages:           pages,
		config:          cfg,
		logger:          logger,
	}, nil
}

var funcMap = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "Never"
		}
		return t.Local().Format("2 Jan 2006 15:04")
	},
	"formatTimeAgo": func(t time.Time) string {
		if t.IsZero() {
			return "Never"
		}
		duration := time.Since(t)
		switch {
		case duration < time.Minute:
			return "just now"
		case duration < time.Hour:
			return fmt.Sprintf("%dm ago", int(duration.Minutes()))
		case duration < 24*time.Hour:
			return fmt.Sprintf("%dh ago", int(duration.Hours()))
		default:
			return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
		}
	},
	"deref": func(ptr interface{}) interface{} {
		switch v := ptr.(type) {
		case *string:
			if v == nil {
				return ""
			}
			return *v
		case *time.Time:
			if v == nil {
				return time.Time{}
			}
			return *v
		default:
			return ptr
		}
	},
	"sanitize": content.Sanitize,
	"excerpt": func(raw string) string {
		return content.Excerpt(raw, excerptLength)
	},
}

// parsePages builds one template set per page: the layout, the shared
// components and the page itself.
func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	pageFiles, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob page templates: %w", err)
	}
	if len(pageFiles) == 0 {
		return nil, errors.New("no page templates found")
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(fsys,
			"templates/layouts/*.html",
			"templates/components/*.html",
			file,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes a page into a buffer first so a template error never
// leaves a half-written page behind.
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, data *PageData) {
	tmpl, ok := h.pages[data.Page]
	if !ok {
		h.serverError(w, r, fmt.Errorf("unknown page %q", data.Page))
		return
	}

	if data.User == nil {
		if sess := h.currentSession(r); sess != nil {
			data.User = &sess.User
		}
	}
	data.Notices = append(h.sessions.Notices(w, r), data.Notices...)
	data.Year = time.Now().Year()
	if data.Errors == nil {
		data.Errors = forms.Errors{}
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *WebHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log(r).Errorw("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *WebHandler) log(r *http.Request) *zap.SugaredLogger {
	return middleware.LoggerFromContext(r.Context(), h.logger)
}

// currentSession returns the session the monitor or gate attached to the
// request, falling back to the cookie.
func (h *WebHandler) currentSession(r *http.Request) *models.Session {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess
	}
	sess, err := h.sessions.Load(r)
	if err != nil {
		return nil
	}
	return sess
}

func (h *WebHandler) redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// notify queues a notice for the next page.
func (h *WebHandler) notify(w http.ResponseWriter, r *http.Request, kind, message string) {
	h.sessions.AddNotice(w, r, kind, message)
}

// errorMessage turns a failed API call into the text shown to the user.
func errorMessage(err error) string {
	if errors.Is(err, blogapi.ErrConnection) {
		return connectionErrorMessage
	}
	if apiErr, ok := blogapi.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return genericErrorMessage
}

// rejectedToken ends the session when the API refused the stored token and
// reports whether it did so. The caller must stop handling the request.
func (h *WebHandler) rejectedToken(w http.ResponseWriter, r *http.Request, err error) bool {
	if !blogapi.IsUnauthorized(err) {
		return false
	}

	username := ""
	if sess := h.currentSession(r); sess != nil {
		username = sess.User.Username
	}
	if clearErr := h.sessions.Clear(w, r); clearErr != nil {
		h.log(r).Errorw("failed to clear rejected session", "error", clearErr)
	}
	h.notify(w, r, session.NoticeWarning, session.ExpiredMessage)
	h.eventLogService.Record(r.Context(), username, models.SessionExpired, "")
	session.Deny(w, r, session.LoginPath)
	return true
}

func (h *WebHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, &PageData{Page: "not_found", Title: "Page not found"})
}
