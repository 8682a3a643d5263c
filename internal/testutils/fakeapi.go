package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"blogweb/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const fakeAPISecret = "fake-api-signing-key"

type fakeUser struct {
	Username string
	Email    string
	Password string
}

// FakeAPI is an in-memory stand-in for the remote blog API.
type FakeAPI struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]*fakeUser // by email
	articles    []models.Article
	calls       map[string]int
	resetTokens map[string]string // reset token -> email

	// TokenTTL is the lifetime of tokens issued by /login
	TokenTTL time.Duration
	// FailDeletes makes DELETE /blogs/{id} answer 500
	FailDeletes bool
}

func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		users:       make(map[string]*fakeUser),
		calls:       make(map[string]int),
		resetTokens: make(map[string]string),
		TokenTTL:    time.Hour,
	}

	r := mux.NewRouter()
	r.Use(f.countCalls)
	r.HandleFunc("/blogs", f.listArticles).Methods(http.MethodGet)
	r.HandleFunc("/blogs", f.requireToken(f.createArticle)).Methods(http.MethodPost)
	r.HandleFunc("/blogs/{id}", f.getArticle).Methods(http.MethodGet)
	r.HandleFunc("/blogs/{id}", f.requireToken(f.updateArticle)).Methods(http.MethodPut)
	r.HandleFunc("/blogs/{id}", f.requireToken(f.deleteArticle)).Methods(http.MethodDelete)
	r.HandleFunc("/search/{query}", f.searchArticles).Methods(http.MethodGet)
	r.HandleFunc("/my-blogs", f.requireToken(f.myArticles)).Methods(http.MethodGet)
	r.HandleFunc("/my-blogs/search/{query}", f.requireToken(f.myArticles)).Methods(http.MethodGet)
	r.HandleFunc("/login", f.login).Methods(http.MethodPost)
	r.HandleFunc("/register", f.register).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", f.forgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset/{token}", f.resetPassword).Methods(http.MethodPost)
	r.HandleFunc("/delete-account", f.requireToken(f.deleteAccount)).Methods(http.MethodDelete)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// AddUser registers an account directly, bypassing /register.
func (f *FakeAPI) AddUser(username, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = &fakeUser{Username: username, Email: email, Password: password}
}

// AddArticle stores an article and returns it with its generated ID.
func (f *FakeAPI) AddArticle(title, content, author string) models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Second)
	article := models.Article{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		Author:    models.Author{Username: author},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.articles = append(f.articles, article)
	return article
}

// Articles returns a copy of the stored articles.
func (f *FakeAPI) Articles() []models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Article, len(f.articles))
	copy(out, f.articles)
	return out
}

// AddResetToken makes token a valid password-reset token for email.
func (f *FakeAPI) AddResetToken(token, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetTokens[token] = email
}

// Calls returns how many requests hit a route, e.g. Calls("POST", "/register").
func (f *FakeAPI) Calls(method, route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+route]
}

// TotalCalls returns the number of requests the API has received.
func (f *FakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// IssueToken signs a token for username that expires after ttl (negative ttl
// yields an already expired token).
func (f *FakeAPI) IssueToken(username string, ttl time.Duration) string {
	return IssueToken(username, time.Now().Add(ttl))
}

// IssueToken signs an API-style token with the given expiry.
func IssueToken(username string, expiresAt time.Time) string {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(fakeAPISecret))
	if err != nil {
		panic(err)
	}
	return token
}

func (f *FakeAPI) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		f.mu.Lock()
		f.calls[r.Method+" "+route]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided"})
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
			return []byte(fakeAPISecret), nil
		})
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		username, _ := claims["username"].(string)
		next(w, r, username)
	}
}

func (f *FakeAPI) listArticles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.filter(func(models.Article) bool { return true }))
}

func (f *FakeAPI) searchArticles(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(mux.Vars(r)["query"])
	writeJSON(w, http.StatusOK, f.filter(func(a models.Article) bool {
		return strings.Contains(strings.ToLower(a.Title), query)
	}))
}

func (f *FakeAPI) myArticles(w http.ResponseWriter, r *http.Request, username string) {
	query := strings.ToLower(mux.Vars(r)["query"])
	writeJSON(w, http.StatusOK, f.filter(func(a models.Article) bool {
		return a.Author.Username == username && strings.Contains(strings.ToLower(a.Title), query)
	}))
}

func (f *FakeAPI) filter(keep func(models.Article) bool) []models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Article{}
	for _, a := range f.articles {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *FakeAPI) getArticle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexOf(mux.Vars(r)["id"]); i >= 0 {
		writeJSON(w, http.StatusOK, f.articles[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Blog not found"})
}

func (f *FakeAPI) indexOf(id string) int {
	for i, a := range f.articles {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) createArticle(w http.ResponseWriter, r *http.Request, username string) {
	var in models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Title) == "" {
		writeErrors(w, http.StatusBadRequest, "title", "Title is required")
		return
	}
	f.AddArticle(in.Title, in.Content, username)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Blog created"})
}

func (f *FakeAPI) updateArticle(w http.ResponseWriter, r *http.Request, username string) {
	var in models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Title) == "" {
		writeErrors(w, http.StatusBadRequest, "title", "Title is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Blog not found"})
		return
	}
	if f.articles[i].Author.Username != username {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Not your blog"})
		return
	}
	f.articles[i].Title = in.Title
	f.articles[i].Content = in.Content
	f.articles[i].UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Blog updated"})
}

func (f *FakeAPI) deleteArticle(w http.ResponseWriter, r *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDeletes {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Delete failed"})
		return
	}
	i := f.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Blog not found"})
		return
	}
	if f.articles[i].Author.Username != username {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Not your blog"})
		return
	}
	f.articles = append(f.articles[:i], f.articles[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Blog deleted"})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	f.mu.Lock()
	user, ok := f.users[in.Email]
	f.mu.Unlock()
	if !ok || user.Password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Login successful",
		"token":     f.IssueToken(user.Username, f.TokenTTL),
		"user_info": map[string]string{"username": user.Username},
	})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrors(w, http.StatusBadRequest, "email", "Invalid request")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[in.Email]; exists {
		writeErrors(w, http.StatusBadRequest, "email", "Email already registered")
		return
	}
	f.users[in.Email] = &fakeUser{Username: in.Username, Email: in.Email, Password: in.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
}

func (f *FakeAPI) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	_, ok := f.users[in.Email]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reset link sent"})
}

func (f *FakeAPI) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.resetTokens[mux.Vars(r)["token"]]
	if !ok {
		writeErrors(w, http.StatusBadRequest, "", "Invalid or expired reset token")
		return
	}
	if user, ok := f.users[email]; ok {
		user.Password = in.Password
	}
	delete(f.resetTokens, mux.Vars(r)["token"])
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

func (f *FakeAPI) deleteAccount(w http.ResponseWriter, r *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, user := range f.users {
		if user.Username == username {
			delete(f.users, email)
		}
	}
	kept := f.articles[:0]
	for _, a := range f.articles {
		if a.Author.Username != username {
			kept = append(kept, a)
		}
	}
	f.articles = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, path, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"errors": []map[string]string{{"path": path, "msg": msg}},
	})
}
