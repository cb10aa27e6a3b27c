// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/trinetra/internal/app/system/flash"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, "Page Title"),
//	}
type BaseVM struct {
	// Site display
	SiteName    string
	SiteTagline string
	FooterText  string

	// Session context, filled from the most recent auth probe when the
	// handler ran one. Nothing here is stored between requests.
	IsLoggedIn bool
	UserName   string

	// Page context
	Title       string
	CurrentPath string

	// Security
	CSRFToken string // CSRF token for forms (use in hidden input field)

	// One-shot notices carried across a redirect
	Flashes []flash.Message

	// ShowDevTools links the developer test page outside production.
	ShowDevTools bool
}

var (
	flashStore   *flash.Store
	showDevTools bool
)

// Init sets the flash store and whether developer tools are linked.
// Call this once at startup from bootstrap.
func Init(store *flash.Store, devTools bool) {
	flashStore = store
	showDevTools = devTools
}

// New creates a BaseVM with site defaults and request context.
// It does not consume flash messages; use NewBaseVM for full pages.
func New(r *http.Request) BaseVM {
	return BaseVM{
		SiteName:     models.DefaultSiteName,
		SiteTagline:  models.DefaultSiteTagline,
		FooterText:   models.DefaultFooterText,
		CurrentPath:  httpnav.CurrentPath(r),
		CSRFToken:    csrf.Token(r),
		ShowDevTools: showDevTools,
	}
}

// NewBaseVM creates a BaseVM for a full page render and pops any queued
// flash messages. Call it before writing anything to w.
func NewBaseVM(w http.ResponseWriter, r *http.Request, title string) BaseVM {
	vm := New(r)
	vm.Title = title
	vm.Flashes = flashStore.Pop(w, r)
	return vm
}

// SetSession copies the display parts of a probe result into the VM.
func (vm *BaseVM) SetSession(st models.SessionState) {
	vm.IsLoggedIn = st.Authenticated
	vm.UserName = ""
	if st.User != nil {
		vm.UserName = st.User.Username
	}
}
