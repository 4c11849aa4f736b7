package main

import (
	_ "embed"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// qrHandler generates a PNG QR code for the current room URL, so a host can
// put the join link on a shared screen.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:code/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed quiz/index.html
var quizHTML []byte

//go:embed quiz/app.css
var quizCSS []byte

//go:embed quiz/app.js
var quizJS []byte

func staticHandler(cfg *Config, contentType string, data []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

// redirectNewRoom handles GET /path by picking a fresh room code and
// redirecting to /path/:code. The room itself is only allocated once the
// host's socket connects.
func redirectNewRoom(cfg *Config, path string, reg *registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := reg.newRoomCode()
		log.Debug().Str("room", code).Str("remote", realIP(r)).Msg("handing out room code")
		http.Redirect(w, r, cfg.prefix+path+"/"+code, http.StatusTemporaryRedirect)
	}
}

// registerQuizGame sets up routes so that:
//   - $path             → redirects to a fresh room code
//   - $path/:code       → HTML client
//   - $path/:code/ws    → WebSocket for that room
//   - $path/:code/qr    → PNG QR code for the room URL
func registerQuizGame(cfg *Config, path string, mux *httprouter.Router, reg *registry) {
	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, path, reg))

	mux.GET(cfg.prefix+path+"/:code", staticHandler(cfg, "text/html; charset=utf-8", quizHTML))

	mux.GET(cfg.prefix+"/assets/quiz/app.css", staticHandler(cfg, "text/css; charset=utf-8", quizCSS))
	mux.GET(cfg.prefix+"/assets/quiz/app.js", staticHandler(cfg, "application/javascript; charset=utf-8", quizJS))

	mux.GET(cfg.prefix+path+"/:code/ws", serveGameSocket(cfg, reg))

	mux.GET(cfg.prefix+path+"/:code/qr", qrHandler)
}
