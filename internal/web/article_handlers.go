package web

import (
	"net/http"
	"strings"

	"blogweb/internal/blogapi"
	"blogweb/internal/forms"
	"blogweb/internal/session"
	"blogweb/models"

	"github.com/gorilla/mux"
)

// Home lists all articles, or the ones matching ?q=.
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := &PageData{Page: "home", Title: "Articles", Query: query}

	articles, err := h.api.SearchArticles(r.Context(), query)
	if err != nil {
		h.log(r).Warnw("failed to load articles", "query", query, "error", err)
		data.Notices = append(data.Notices, session.Notice{Kind: session.NoticeError, Message: errorMessage(err)})
	}
	data.Articles = articles

	h.render(w, r, http.StatusOK, data)
}

func (h *WebHandler) ArticleDetail(w http.ResponseWriter, r *http.Request) {
	article, err := h.api.GetArticle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.notify(w, r, session.NoticeError, errorMessage(err))
		h.redirect(w, r, "/")
		return
	}

	h.render(w, r, http.StatusOK, &PageData{Page: "article", Title: article.Title, Article: article})
}

// MyArticles lists the signed-in user's articles, or the ones matching ?q=.
func (h *WebHandler) MyArticles(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := &PageData{Page: "my_articles", Title: "My articles", Query: query}

	articles, err := h.api.SearchMyArticles(r.Context(), sess.Token, query)
	if err != nil {
		if h.rejectedToken(w, r, err) {
			return
		}
		h.log(r).Warnw("failed to load own articles", "error", err)
		data.Notices = append(data.Notices, session.Notice{Kind: session.NoticeError, Message: errorMessage(err)})
	}
	data.Articles = articles

	h.render(w, r, http.StatusOK, data)
}

func (h *WebHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Page: "article_form", Title: "New article", Form: map[string]string{}}

	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, data)
		return
	}

	input, ok := h.readArticleForm(w, r, data)
	if !ok {
		return
	}

	sess := h.currentSession(r)
	resp, err := h.api.CreateArticle(r.Context(), sess.Token, input)
	if err != nil {
		h.articleSaveFailed(w, r, data, err)
		return
	}

	h.eventLogService.Record(r.Context(), sess.User.Username, models.ArticleCreated, "")
	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Article published"))
	h.redirect(w, r, "/my-blogs")
}

func (h *WebHandler) EditArticle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data := &PageData{Page: "article_form", Title: "Edit article", Form: map[string]string{}}

	if r.Method == http.MethodGet {
		article, err := h.api.GetArticle(r.Context(), id)
		if err != nil {
			h.notify(w, r, session.NoticeError, errorMessage(err))
			h.redirect(w, r, "/my-blogs")
			return
		}
		data.Article = article
		data.Form["title"] = article.Title
		data.Form["content"] = article.Content
		h.render(w, r, http.StatusOK, data)
		return
	}

	data.Article = &models.Article{ID: id}
	input, ok := h.readArticleForm(w, r, data)
	if !ok {
		return
	}

	sess := h.currentSession(r)
	resp, err := h.api.UpdateArticle(r.Context(), sess.Token, id, input)
	if err != nil {
		h.articleSaveFailed(w, r, data, err)
		return
	}

	h.eventLogService.Record(r.Context(), sess.User.Username, models.ArticleUpdated, id)
	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Article updated"))
	h.redirect(w, r, "/my-blogs")
}

// readArticleForm validates the posted article. On failure it re-renders the
// form and returns false.
func (h *WebHandler) readArticleForm(w http.ResponseWriter, r *http.Request, data *PageData) (models.ArticleInput, bool) {
	form := forms.Article{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		Content: r.PostFormValue("content"),
	}
	data.Form["title"] = form.Title
	data.Form["content"] = form.Content

	if errs := form.Validate(); errs.Any() {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return models.ArticleInput{}, false
	}
	return models.ArticleInput{Title: form.Title, Content: form.Content}, true
}

func (h *WebHandler) articleSaveFailed(w http.ResponseWriter, r *http.Request, data *PageData, err error) {
	if h.rejectedToken(w, r, err) {
		return
	}
	h.log(r).Warnw("failed to save article", "error", err)

	data.Errors = forms.Errors{}
	status := http.StatusBadGateway
	if apiErr, ok := blogapi.AsAPIError(err); ok {
		data.Errors.Merge(apiErr.Fields)
		status = http.StatusUnprocessableEntity
	}
	data.Notices = append(data.Notices, session.Notice{Kind: session.NoticeError, Message: errorMessage(err)})
	h.render(w, r, status, data)
}

// DeleteArticle deletes one of the user's articles and returns to the list,
// which is fetched again so a failed delete leaves it as it was.
func (h *WebHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess := h.currentSession(r)

	resp, err := h.api.DeleteArticle(r.Context(), sess.Token, id)
	if err != nil {
		if h.rejectedToken(w, r, err) {
			return
		}
		h.log(r).Warnw("failed to delete article", "id", id, "error", err)
		h.eventLogService.Record(r.Context(), sess.User.Username, models.ArticleDeleteFailed, id)
		h.notify(w, r, session.NoticeError, "Could not delete the article: "+errorMessage(err))
		h.redirect(w, r, "/my-blogs")
		return
	}

	h.eventLogService.Record(r.Context(), sess.User.Username, models.ArticleDeleted, id)
	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Article deleted"))
	h.redirect(w, r, "/my-blogs")
}

func messageOr(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
