package ping

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
)

// ServeHTTP answers GET /status?container=&name=&style= with the rendered
// message. An unknown style is a 400.
func (p *Pinger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	msg, err := p.Runtime(r.Context(), q.Get("container"), q.Get("name"), Style(q.Get("style")))
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, msg); err != nil {
		slog.Error("can't write status", "error", err)
	}
}
