// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	userstore "github.com/huddleapp/huddle/internal/app/store/users"
	"github.com/huddleapp/huddle/internal/app/system/auth"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/normalize"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: uierrors.NewErrorLogger(logger),
		Users:  userstore.New(db),
	}
}

type loginFormData struct {
	formutil.Base
	Email     string
	ReturnURL string
}

// ServeForm handles GET /login.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{ReturnURL: safeReturn(r.URL.Query().Get("return"))}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	templates.Render(w, r, "login", data)
}

// HandleSubmit handles POST /login.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	email := normalize.Email(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	ret := safeReturn(r.PostFormValue("return"))

	data := loginFormData{Email: email, ReturnURL: ret}
	formutil.SetBase(&data.Base, r, "Sign in", "/")

	if email == "" || password == "" {
		data.SetError("Email and password are required.")
		templates.Render(w, r, "login", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Same message as a bad password so addresses can't be probed.
		data.SetError("Incorrect email or password.")
		templates.Render(w, r, "login", data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: look up user", err)
		return
	}
	if !h.Users.VerifyPassword(u, password) {
		h.Log.Info("failed sign-in", zap.String("email", email))
		data.SetError("Incorrect email or password.")
		templates.Render(w, r, "login", data)
		return
	}

	su := &auth.SessionUser{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		Superuser: u.Superuser,
	}
	if err := auth.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "login: save session", err)
		return
	}

	h.Log.Info("signed in", zap.String("user_id", su.ID))
	http.Redirect(w, r, ret, http.StatusSeeOther)
}

// safeReturn only allows same-site relative paths as post-login targets.
func safeReturn(ret string) string {
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") {
		return "/"
	}
	return ret
}
