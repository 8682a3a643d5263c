package web

import (
	"errors"
	"net/http"
	"strings"

	"blogweb/internal/blogapi"
	"blogweb/internal/forms"
	"blogweb/internal/session"
	"blogweb/models"

	"github.com/gorilla/mux"
)

// failureStatus is the status a form page is re-rendered with after the API
// refused or could not be reached.
func failureStatus(err error) int {
	if errors.Is(err, blogapi.ErrConnection) {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

// formFailed re-renders a form page with the API's field errors and message.
func (h *WebHandler) formFailed(w http.ResponseWriter, r *http.Request, data *PageData, err error) {
	h.log(r).Infow("form rejected", "page", data.Page, "error", err)
	if apiErr, ok := blogapi.AsAPIError(err); ok {
		data.Errors.Merge(apiErr.Fields)
	}
	data.Notices = append(data.Notices, session.Notice{Kind: session.NoticeError, Message: errorMessage(err)})
	h.render(w, r, failureStatus(err), data)
}

func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Page: "login", Title: "Log in", Form: map[string]string{}, Errors: forms.Errors{}}
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, data)
		return
	}

	form := forms.Login{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data.Form["email"] = form.Email
	if errs := form.Validate(); errs.Any() {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	resp, err := h.api.Login(r.Context(), blogapi.LoginRequest{Email: form.Email, Password: form.Password})
	if err == nil && resp.Token == "" {
		err = &blogapi.APIError{StatusCode: http.StatusBadGateway, Message: "The server did not return a token"}
	}
	if err != nil {
		h.formFailed(w, r, data, err)
		return
	}

	if err := h.sessions.Save(w, r, resp.Token, resp.UserInfo); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.eventLogService.Record(r.Context(), resp.UserInfo.Username, models.LoggedIn, "")
	h.log(r).Infow("user logged in", "username", resp.UserInfo.Username)
	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Logged in"))
	h.redirect(w, r, "/my-blogs")
}

func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Page: "register", Title: "Register", Form: map[string]string{}, Errors: forms.Errors{}}
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, data)
		return
	}

	form := forms.Register{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	data.Form["username"] = form.Username
	data.Form["email"] = form.Email
	if errs := form.Validate(); errs.Any() {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	resp, err := h.api.Register(r.Context(), blogapi.RegisterRequest{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		h.formFailed(w, r, data, err)
		return
	}

	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Registration complete. You can now log in."))
	h.redirect(w, r, session.LoginPath)
}

func (h *WebHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Page: "forgot_password", Title: "Forgot password", Form: map[string]string{}, Errors: forms.Errors{}}
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, data)
		return
	}

	form := forms.ForgotPassword{Email: strings.TrimSpace(r.PostFormValue("email"))}
	data.Form["email"] = form.Email
	if errs := form.Validate(); errs.Any() {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	resp, err := h.api.ForgotPassword(r.Context(), form.Email)
	if err != nil {
		h.formFailed(w, r, data, err)
		return
	}

	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Check your inbox for a reset link."))
	h.redirect(w, r, "/forgot-password")
}

// ResetPassword is reached from the emailed link; it renders without the
// navigation bar and footer.
func (h *WebHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	resetToken := mux.Vars(r)["token"]
	data := &PageData{
		Page:       "reset_password",
		Title:      "Reset password",
		HideChrome: true,
		ResetToken: resetToken,
		Form:       map[string]string{},
		Errors:     forms.Errors{},
	}
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, data)
		return
	}

	form := forms.ResetPassword{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	if errs := form.Validate(); errs.Any() {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	resp, err := h.api.ResetPassword(r.Context(), resetToken, blogapi.ResetPasswordRequest{
		Password:        strings.TrimSpace(form.Password),
		ConfirmPassword: strings.TrimSpace(form.ConfirmPassword),
	})
	if err != nil {
		h.formFailed(w, r, data, err)
		return
	}

	if sess := h.currentSession(r); sess != nil {
		h.eventLogService.Record(r.Context(), sess.User.Username, models.PasswordReset, "")
	}
	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Your password has been changed."))
	h.redirect(w, r, "/my-blogs")
}

func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		h.eventLogService.Record(r.Context(), sess.User.Username, models.LoggedOut, "")
	}
	if err := h.sessions.Clear(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.notify(w, r, session.NoticeInfo, "You have been logged out.")
	h.redirect(w, r, session.LoginPath)
}

func (h *WebHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)

	resp, err := h.api.DeleteAccount(r.Context(), sess.Token)
	if err != nil {
		if h.rejectedToken(w, r, err) {
			return
		}
		h.log(r).Warnw("failed to delete account", "username", sess.User.Username, "error", err)
		h.notify(w, r, session.NoticeError, errorMessage(err))
		h.redirect(w, r, "/my-blogs")
		return
	}

	if err := h.sessions.Clear(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.eventLogService.Record(r.Context(), sess.User.Username, models.AccountDeleted, "")
	h.log(r).Infow("account deleted", "username", sess.User.Username)
	h.notify(w, r, session.NoticeSuccess, messageOr(resp.Message, "Your account has been deleted."))
	h.redirect(w, r, "/")
}

// Activity shows the user's recent activity recorded by this frontend.
func (h *WebHandler) Activity(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	data := &PageData{Page: "activity", Title: "Recent activity"}

	logs, err := h.eventLogService.GetAllByUsername(r.Context(), sess.User.Username, activityLimit)
	if err != nil {
		h.log(r).Errorw("failed to load activity", "error", err)
		data.Notices = append(data.Notices, session.Notice{Kind: session.NoticeError, Message: "Activity is unavailable right now."})
	}
	data.EventLogs = logs

	h.render(w, r, http.StatusOK, data)
}
