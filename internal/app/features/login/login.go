// internal/app/features/login/login.go
package login

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/trinetra/internal/app/features/errors"
	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/system/auditlog"
	"github.com/dalemusser/trinetra/internal/app/system/flash"
	"github.com/dalemusser/trinetra/internal/app/system/inputval"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/app/system/viewdata"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DashboardPath is where a signed-in user lands by default.
const DashboardPath = "/dashboard"

// SignupCreatedMessage is flashed when an account was created but the
// remote service did not start a session.
const SignupCreatedMessage = "Account created successfully! Please login."

// Handler provides login and signup handlers.
type Handler struct {
	auth          wakapiauth.Service
	flash         *flash.Store
	audit         *auditlog.Logger
	errLog        *errorsfeature.ErrorLogger
	sessionCookie string
	secure        bool
	logger        *zap.Logger
}

// NewHandler creates a new login Handler. sessionCookie names the remote
// session cookie; secure marks relayed cookies Secure.
func NewHandler(
	auth wakapiauth.Service,
	flashStore *flash.Store,
	audit *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	sessionCookie string,
	secure bool,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionCookie == "" {
		sessionCookie = wakapi.DefaultSessionCookie
	}
	return &Handler{
		auth:          auth,
		flash:         flashStore,
		audit:         audit,
		errLog:        errLog,
		sessionCookie: sessionCookie,
		secure:        secure,
		logger:        logger,
	}
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.ShowLogin)
	r.Post("/", h.HandleLogin)
	r.Get("/signup", h.ShowSignup)
	r.Post("/signup", h.HandleSignup)
	return r
}

type loginVM struct {
	viewdata.BaseVM
	ReturnURL string
	Username  string
	Error     string
}

type signupVM struct {
	viewdata.BaseVM
	Username string
	Email    string
	Error    string
}

// formCredentials reads the submitted form. The password lives only in the
// returned value; re-rendered forms get the Redacted copy.
func formCredentials(r *http.Request) models.Credentials {
	return models.Credentials{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
}

// ShowLogin renders the login form, or sends an already signed-in user on
// to the dashboard.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	returnURL := query.Get(r, "return")

	state := h.auth.CheckAuth(r.Context())
	if state.Authenticated {
		http.Redirect(w, r, safeReturn(returnURL), http.StatusSeeOther)
		return
	}

	vm := loginVM{
		BaseVM:    viewdata.NewBaseVM(w, r, "Sign In"),
		ReturnURL: returnURL,
	}
	templates.Render(w, r, "login/form", vm)
}

// HandleLogin submits credentials to the remote service.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	creds := formCredentials(r)
	input := inputval.LoginInput{Username: creds.Username, Password: creds.Password}
	returnURL := r.FormValue("return")

	renderErr := func(msg string) {
		vm := loginVM{
			BaseVM:    viewdata.NewBaseVM(w, r, "Sign In"),
			ReturnURL: returnURL,
			Username:  creds.Redacted().Username,
			Error:     msg,
		}
		templates.Render(w, r, "login/form", vm)
	}

	if res := inputval.Validate(input); res.HasErrors() {
		renderErr(res.First())
		return
	}

	res, err := h.auth.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		if wakapi.IsCanceled(err) {
			return
		}
		h.audit.LoginFailed(r.Context(), r, input.Username, err)
		h.errLog.LogRemote(r, "login failed", err)
		renderErr(LoginErrorMessage(err))
		return
	}

	h.audit.LoginSucceeded(r.Context(), r, input.Username, res.Status)
	wakapi.RelayCookies(w, res.Cookies, h.secure)
	http.Redirect(w, r, safeReturn(returnURL), http.StatusSeeOther)
}

// ShowSignup renders the registration form.
func (h *Handler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	vm := signupVM{BaseVM: viewdata.NewBaseVM(w, r, "Create Account")}
	templates.Render(w, r, "login/signup", vm)
}

// HandleSignup registers an account. When the remote service answers with
// a redirect that starts a session, the user is signed in straight away;
// otherwise they are sent back to the login form with a notice.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	creds := formCredentials(r)
	input := inputval.SignupInput{Username: creds.Username, Email: creds.Email, Password: creds.Password}

	renderErr := func(msg string) {
		shown := creds.Redacted()
		vm := signupVM{
			BaseVM:   viewdata.NewBaseVM(w, r, "Create Account"),
			Username: shown.Username,
			Email:    shown.Email,
			Error:    msg,
		}
		templates.Render(w, r, "login/signup", vm)
	}

	if res := inputval.Validate(input); res.HasErrors() {
		renderErr(res.First())
		return
	}

	res, err := h.auth.Register(r.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		if wakapi.IsCanceled(err) {
			return
		}
		h.audit.SignupFailed(r.Context(), r, input.Username, err)
		h.errLog.LogRemote(r, "signup failed", err)
		renderErr(SignupErrorMessage(err))
		return
	}

	h.audit.SignupSucceeded(r.Context(), r, input.Username, res.Status)

	if res.Redirect && h.startsSession(res) {
		wakapi.RelayCookies(w, res.Cookies, h.secure)
		http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
		return
	}

	h.flash.Success(w, r, SignupCreatedMessage)
	http.Redirect(w, r, navigate.LoginPath, http.StatusSeeOther)
}

func (h *Handler) startsSession(res *wakapiauth.Result) bool {
	for _, ck := range res.Cookies {
		if ck.Name == h.sessionCookie && ck.Value != "" && ck.MaxAge >= 0 {
			return true
		}
	}
	return false
}

// safeReturn limits post-login redirects to local paths outside the login
// flow itself.
func safeReturn(returnURL string) string {
	target := urlutil.SafeReturn(returnURL, "", DashboardPath)
	if target == navigate.LoginPath || strings.HasPrefix(target, navigate.LoginPath+"/") ||
		strings.HasPrefix(target, navigate.LoginPath+"?") {
		return DashboardPath
	}
	return target
}

// LoginErrorMessage maps a failed login to the text shown on the form.
func LoginErrorMessage(err error) string {
	switch wakapi.StatusOf(err) {
	case http.StatusBadRequest:
		return "Invalid username or password"
	case http.StatusUnauthorized:
		return "Authentication failed. Please check your credentials."
	case http.StatusNotFound:
		return "Service unavailable. Please try again."
	}
	if wakapi.IsTransport(err) {
		return "Cannot connect to server. Please check if the service is running."
	}
	if msg := wakapi.MessageOf(err); msg != "" {
		return msg
	}
	return "Authentication failed"
}

// SignupErrorMessage maps a failed registration to the text shown on the form.
func SignupErrorMessage(err error) string {
	switch {
	case wakapi.IsTransport(err):
		return "Cannot connect to server. Please check if the service is running."
	case wakapi.StatusOf(err) == http.StatusNotFound:
		return "Service unavailable. Please try again."
	}
	if msg := wakapi.MessageOf(err); msg != "" {
		return msg
	}
	return "Registration failed"
}
