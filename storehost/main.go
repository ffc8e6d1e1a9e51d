// Command storehost runs the shared tree the clients synchronize through:
// an embedded NATS broker, the in-memory tree served over it, and a small
// HTTP side for health checks and a live session feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/automoto/twinflame/shared/store"
	"github.com/automoto/twinflame/shared/store/natsstore"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	natsPort := flag.Int("nats-port", envInt("TWINFLAME_NATS_PORT", 4222), "NATS listen port")
	natsHost := flag.String("nats-host", envString("TWINFLAME_NATS_HOST", "0.0.0.0"), "NATS listen address")
	port := flag.Int("port", envInt("TWINFLAME_HTTP_PORT", 8080), "HTTP listen port")
	reap := flag.Duration("reap", 30*time.Second, "how often empty sessions are deleted")
	flag.Parse()

	srv, err := natsstore.NewServer(natsstore.WithHost(*natsHost), natsstore.WithPort(*natsPort))
	if err != nil {
		log.Fatalf("[storehost] fatal: %v", err)
	}
	if err := srv.Start(); err != nil {
		log.Fatalf("[storehost] fatal: %v", err)
	}
	defer srv.Shutdown()

	conn, err := nats.Connect(srv.ClientURL(), nats.Name("storehost"))
	if err != nil {
		log.Fatalf("[storehost] fatal: %v", err)
	}
	defer conn.Close()

	mem := store.NewMemory()
	defer mem.Close()
	host := natsstore.NewHost(conn, mem)
	if err := host.Start(); err != nil {
		log.Fatalf("[storehost] fatal: %v", err)
	}
	defer host.Stop()

	reaper := NewReaper(mem, *reap)
	defer reaper.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health())
	mux.HandleFunc("GET /sessions", ListSessions(mem))
	mux.HandleFunc("GET /ws", Feed(mem))

	addr := fmt.Sprintf(":%d", *port)
	httpSrv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Printf("[storehost] http on %s, store at %s", addr, srv.ClientURL())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[storehost] fatal: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("[storehost] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("[storehost] http shutdown: %v", err)
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}
