package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vctt94/bisonbotkit/logging"

	"belotsrv/pkg/server"
)

func main() {
	var (
		dbPath     string
		host       string
		port       int
		portFile   string
		seed       int64
		idleMins   int
		debugLevel string
		logFile    string
	)
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&host, "host", "127.0.0.1", "Host to listen on")
	flag.IntVar(&port, "port", 0, "Port to listen on (0 for random free port)")
	flag.StringVar(&portFile, "portfile", "", "If set, write selected port to this file")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random)")
	flag.IntVar(&idleMins, "idlemins", 0, "Idle room timeout in minutes (0 = server default)")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.StringVar(&logFile, "logfile", "", "If set, also log to this file")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "belotsrv.sqlite")
	}

	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:    logFile,
		DebugLevel: debugLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logBackend.Close()
	log := logBackend.Logger("MAIN")

	if seed == 0 {
		// Allow env override for convenience
		if env := os.Getenv("BELOT_SEED"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				seed = v
			}
		}
	}

	bc := server.NewWSBroadcaster(logBackend.Logger("WS"))

	mgr, err := server.NewManager(server.Config{
		DB:              db,
		LogBackend:      logBackend,
		Broadcaster:     bc,
		DeckSeed:        seed,
		RoomIdleTimeout: time.Duration(idleMins) * time.Minute,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create session manager: %v\n", err)
		os.Exit(1)
	}

	bc.OnMessage = mgr.HandleMessage
	bc.OnConnect = mgr.HandleConnect
	bc.OnDisconnect = mgr.HandleDisconnect

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	if portFile != "" {
		_, p, _ := net.SplitHostPort(lis.Addr().String())
		_ = os.WriteFile(portFile, []byte(p), 0600)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", bc)

	httpSrv := &http.Server{Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Infof("shutting down")
		if err := mgr.Close(); err != nil {
			log.Errorf("closing session manager: %v", err)
		}
		bc.CloseAll()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}()

	log.Infof("listening on %s", lis.Addr())
	if err := httpSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		os.Exit(1)
	}
}
