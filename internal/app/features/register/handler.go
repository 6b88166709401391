// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	invitestore "github.com/huddleapp/huddle/internal/app/store/invites"
	userstore "github.com/huddleapp/huddle/internal/app/store/users"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/inputval"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Users   *userstore.Store
	Invites *invitestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  uierrors.NewErrorLogger(logger),
		Users:   userstore.New(db),
		Invites: invitestore.New(db, logger),
	}
}

type registerForm struct {
	Username string `validate:"required,min=3,max=40" label:"Username"`
	Email    string `validate:"required,email" label:"Email"`
	Password string `validate:"required,min=8,max=128" label:"Password"`
}

type registerFormData struct {
	formutil.Base
	Username string
	Email    string
}

// ServeForm handles GET /register.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := registerFormData{}
	formutil.SetBase(&data.Base, r, "Register", "/")
	templates.Render(w, r, "register", data)
}

// HandleSubmit handles POST /register. On success any pending invites for
// the address become memberships and the user is sent to the sign-in page.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	form := registerForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := registerFormData{Username: form.Username, Email: form.Email}
	formutil.SetBase(&data.Base, r, "Register", "/")

	if res := inputval.Validate(form); res.HasErrors() {
		data.SetError(res.First())
		templates.Render(w, r, "register", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, form.Username, form.Email, form.Password, false)
	if errors.Is(err, userstore.ErrDuplicateEmail) || errors.Is(err, userstore.ErrDuplicateUsername) {
		data.SetError(err.Error())
		templates.Render(w, r, "register", data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: create user", err)
		return
	}

	// Invites sent before the account existed become memberships now.
	// A failure here doesn't block registration.
	if n, err := h.Invites.Convert(ctx, u.Email, u.ID); err != nil {
		h.Log.Warn("register: convert pending invites",
			zap.String("email", u.Email), zap.Error(err))
	} else if n > 0 {
		h.Log.Info("register: joined invited groups",
			zap.String("user_id", u.ID.Hex()), zap.Int("groups", n))
	}

	h.Log.Info("registered", zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
