package lastfm

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"
)

// AuthCallbackPort is tried first for the local callback server. A random
// port is used when it is taken.
const AuthCallbackPort = 9847

// CallbackURL is the callback on the preferred port.
var CallbackURL = fmt.Sprintf("http://localhost:%d/callback", AuthCallbackPort)

var errNoToken = errors.New("authorization returned no token")

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>shelf: Last.fm</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
{{if .}}<h1>Account linked</h1>
<p>Return to your terminal, shelf will scrobble the books you finish.</p>
{{else}}<h1>Authorization failed</h1>
<p>Last.fm sent no token. Run <code>shelf lastfm</code> again.</p>
{{end}}</body>
</html>
`))

// AuthServer receives the browser redirect that ends the Last.fm web flow.
type AuthServer struct {
	srv    *http.Server
	ln     net.Listener
	tokens chan string
	done   chan struct{}
}

// StartAuthServer listens on the callback port, or any free port.
func StartAuthServer() (*AuthServer, error) {
	as, err := startAuthServer(fmt.Sprintf("localhost:%d", AuthCallbackPort))
	if err != nil {
		return startAuthServer("localhost:0")
	}
	return as, nil
}

func startAuthServer(addr string) (*AuthServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	as := &AuthServer{
		ln:     ln,
		tokens: make(chan string, 1),
		done:   make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", as.callback)
	as.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		defer close(as.done)
		_ = as.srv.Serve(ln)
	}()
	return as, nil
}

func (as *AuthServer) callback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if token == "" {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = callbackPage.Execute(w, token != "")

	// first redirect wins
	select {
	case as.tokens <- token:
	default:
	}
}

// Addr is the host:port the server listens on.
func (as *AuthServer) Addr() string { return as.ln.Addr().String() }

// CallbackURL is the URL to hand to Last.fm as the redirect target.
func (as *AuthServer) CallbackURL() string { return "http://" + as.Addr() + "/callback" }

// WaitForToken blocks until the browser is redirected back or ctx ends.
func (as *AuthServer) WaitForToken(ctx context.Context) (string, error) {
	select {
	case token := <-as.tokens:
		if token == "" {
			return "", errNoToken
		}
		return token, nil
	case <-ctx.Done():
		return "", fmt.Errorf("wait for authorization: %w", ctx.Err())
	}
}

func (as *AuthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = as.srv.Shutdown(ctx)
	<-as.done
}

// OpenBrowser opens url with the desktop's default handler.
func OpenBrowser(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		name = "xdg-open"
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return fmt.Errorf("open browser: unsupported platform %s", runtime.GOOS)
	}
	return exec.Command(name, append(args, url)...).Start() //nolint:gosec // url comes from our own client
}
