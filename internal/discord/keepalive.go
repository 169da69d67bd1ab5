package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// keepaliveServer runs a tiny HTTP endpoint so hosting platforms with
// health probes keep the process alive. Shuts down when ctx is cancelled.
func keepaliveServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Bot alive!")
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] Keepalive server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Println("[ERR] Keepalive server:", err)
	}
}
