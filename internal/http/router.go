package http

import (
	"net/http"
	"sort"
	"strings"
)

// RouterConfig carries the handlers and middleware the router mounts. Session
// and LoginRateLimit wrap only the routes that need them; Middleware wraps the
// whole tree outermost-first.
type RouterConfig struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Clients   *ClientHandler
	Remarks   *RemarkHandler
	Projects  *ProjectHandler
	Chantiers *ChantierHandler
	Events    *EventHandler
	Support   *SupportHandler
	Dashboard *DashboardHandler

	Session        func(http.Handler) http.Handler
	LoginRateLimit func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	protected := http.NewServeMux()

	if cfg.Auth != nil {
		protected.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Users != nil {
		protected.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		protected.HandleFunc("/users/", resourceRoute("/users/", map[string]http.HandlerFunc{
			http.MethodPut:    cfg.Users.Update,
			http.MethodDelete: cfg.Users.Delete,
		}))
		protected.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.GetProfile(w, r)
			case http.MethodPut:
				cfg.Users.UpdateProfile(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
		protected.HandleFunc("/profile/password", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Users.ChangePassword(w, r)
		})
	}

	if cfg.Clients != nil {
		protected.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Clients.List(w, r)
			case http.MethodPost:
				cfg.Clients.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		clientResource := resourceRoute("/clients/", map[string]http.HandlerFunc{
			http.MethodGet:    cfg.Clients.Get,
			http.MethodPut:    cfg.Clients.Update,
			http.MethodDelete: cfg.Clients.Delete,
		})
		protected.HandleFunc("/clients/", func(w http.ResponseWriter, r *http.Request) {
			if cfg.Remarks != nil {
				rest := strings.TrimPrefix(r.URL.Path, "/clients/")
				if clientID, found := strings.CutSuffix(rest, "/remarks"); found &&
					clientID != "" && !strings.Contains(clientID, "/") {
					r = r.WithContext(ContextWithResourceID(r.Context(), clientID))
					switch r.Method {
					case http.MethodGet:
						cfg.Remarks.List(w, r)
					case http.MethodPost:
						cfg.Remarks.Create(w, r)
					default:
						methodNotAllowed(w, http.MethodGet, http.MethodPost)
					}
					return
				}
			}
			clientResource(w, r)
		})
	}

	if cfg.Remarks != nil {
		protected.HandleFunc("/remarks/", resourceRoute("/remarks/", map[string]http.HandlerFunc{
			http.MethodPut:    cfg.Remarks.Update,
			http.MethodDelete: cfg.Remarks.Delete,
		}))
	}

	if cfg.Projects != nil {
		protected.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Projects.List(w, r)
			case http.MethodPost:
				cfg.Projects.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		protected.HandleFunc("/projects/", resourceRoute("/projects/", map[string]http.HandlerFunc{
			http.MethodGet:    cfg.Projects.Get,
			http.MethodPut:    cfg.Projects.Update,
			http.MethodDelete: cfg.Projects.Delete,
		}))
	}

	if cfg.Chantiers != nil {
		protected.HandleFunc("/chantiers", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Chantiers.List(w, r)
		})
		protected.HandleFunc("/chantiers/", resourceRoute("/chantiers/", map[string]http.HandlerFunc{
			http.MethodGet:    cfg.Chantiers.Get,
			http.MethodPut:    cfg.Chantiers.Update,
			http.MethodDelete: cfg.Chantiers.Delete,
		}))
	}

	if cfg.Events != nil {
		protected.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		protected.HandleFunc("/events/", resourceRoute("/events/", map[string]http.HandlerFunc{
			http.MethodGet:    cfg.Events.Get,
			http.MethodPut:    cfg.Events.Update,
			http.MethodDelete: cfg.Events.Delete,
		}))
		protected.HandleFunc("/calendar/export.ics", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Events.ExportICS(w, r)
		})
	}

	if cfg.Support != nil {
		protected.HandleFunc("/support/messages", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Support.List(w, r)
			case http.MethodPost:
				cfg.Support.Post(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Dashboard != nil {
		protected.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Dashboard.Overview(w, r)
		})
	}

	var protectedHandler http.Handler = protected
	if cfg.Session != nil {
		protectedHandler = cfg.Session(protectedHandler)
	}

	mux := http.NewServeMux()
	if cfg.Auth != nil {
		var login http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		if cfg.LoginRateLimit != nil {
			login = cfg.LoginRateLimit(login)
		}
		mux.Handle("/login", login)
	}
	mux.Handle("/", protectedHandler)

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// resourceRoute extracts the trailing path segment as the resource ID and
// dispatches on method.
func resourceRoute(prefix string, methods map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(methods))
	for method := range methods {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)

	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		handle, ok := methods[r.Method]
		if !ok {
			methodNotAllowed(w, allowed...)
			return
		}
		r = r.WithContext(ContextWithResourceID(r.Context(), id))
		handle(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
