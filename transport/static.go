package transport

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"

	"sus-lab/contract"
)

//go:embed web/*
var webFolder embed.FS

// NewMux assembles the full HTTP surface: the embedded client page, the
// WebSocket endpoint, a health probe and a QR code of the join URL so
// phones can hop in.
func NewMux(log *slog.Logger, orchestrator contract.IOrchestrator,
	endpoint *Endpoint, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	webRoot, err := fs.Sub(webFolder, "web")
	if err != nil {
		// Embedded FS layout is fixed at compile time; this cannot happen.
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(webRoot)))
	mux.Handle("/ws", endpoint)
	mux.HandleFunc("/healthz", healthHandler(orchestrator))
	mux.HandleFunc("/qr", qrHandler(log, publicURL))
	return mux
}

func healthHandler(orchestrator contract.IOrchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := orchestrator.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "ok",
			"participants": stats.Participants,
			"roundActive":  stats.RoundActive,
			"roundNumber":  stats.RoundNumber,
		})
	}
}

// qrHandler renders the join URL as a PNG so players can scan instead of
// typing an address.
func qrHandler(log *slog.Logger, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(publicURL, qrcode.Medium, 256)
		if err != nil {
			log.Error("Failed to render join QR", "error", err)
			http.Error(w, "qr unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", fmt.Sprint(len(png)))
		_, _ = w.Write(png)
	}
}
