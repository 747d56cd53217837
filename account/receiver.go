package account

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"
)

// ErrNoFreePort reports that none of the candidate loopback ports
// could be bound.
var ErrNoFreePort = errors.New("no free auth receiver port")

// Candidate loopback ports registered as redirect URIs for the
// application. The first that binds wins.
var receiverPorts = []int{25566, 25567, 25568, 25569}

const receiverPath = "/auth-redirect"

// Receiver is a one-shot loopback HTTP server that catches the OAuth
// redirect and surfaces the auth code.
type Receiver struct {
	ln   net.Listener
	srv  *http.Server
	code chan string
}

// NewReceiver binds the first free candidate port and starts serving.
func NewReceiver() (*Receiver, error) {
	var ln net.Listener
	var err error
	for _, port := range receiverPorts {
		ln, err = net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			break
		}
		log.Debug("auth receiver bind", "port", port, "err", err)
		ln = nil
	}
	if ln == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFreePort, err)
	}

	r := &Receiver{ln: ln, code: make(chan string, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc(receiverPath, func(w http.ResponseWriter, req *http.Request) {
		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Login complete. You can close this tab.")
		select {
		case r.code <- code:
		default:
		}
	})
	r.srv = &http.Server{Handler: mux}
	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Debug("auth receiver serve", "err", err)
		}
	}()
	return r, nil
}

// RedirectURL is the URI the OAuth flow must redirect to.
func (r *Receiver) RedirectURL() string {
	return fmt.Sprintf("http://%s%s", r.ln.Addr(), receiverPath)
}

// Wait blocks until a code arrives or ctx is done.
func (r *Receiver) Wait(ctx context.Context) (string, error) {
	select {
	case code := <-r.code:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close shuts the server down.
func (r *Receiver) Close() error {
	return r.srv.Close()
}
