package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	configPath := flag.String("config", DefaultConfigFile, "Path to the balance YAML")
	dbPath := flag.String("db", "void-survivor.db", "Path to the SQLite database (empty disables accounts)")
	simulate := flag.Int("simulate", 0, "Run a headless balance simulation for N waves and print the report")
	seed := flag.Int64("seed", 0, "Simulation seed (default 1)")
	chartPath := flag.String("chart", "", "Write a PNG chart of the simulated enemy mix to this path")
	flag.Parse()

	configs := NewConfigStore(*configPath)

	if *simulate > 0 {
		store := OpenReportStore(reportAppName)
		report, err := RunSimulation(configs.Get(), *simulate, *seed, os.Stdout, store)
		if err != nil {
			log.Fatalf("simulate: %v", err)
		}
		if *chartPath != "" {
			if err := SaveChart(report, *chartPath); err != nil {
				log.Fatalf("chart: %v", err)
			}
			log.Printf("chart written to %s", *chartPath)
		}
		return
	}

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	var db *DB
	if *dbPath != "" {
		var err error
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Printf("database disabled: %v", err)
			db = nil
		}
	}
	var analytics *Analytics
	if db != nil {
		analytics = NewAnalytics(db)
	}

	hub := NewHub(configs, db, analytics)
	go hub.Run()

	done := make(chan struct{})
	go hub.sessions.RunReaper(done)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if err := configs.Reload(); err != nil {
				log.Printf("config reload failed, keeping active config: %v", err)
			}
		}
	}()

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving client files from %s", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	close(done)
	server.Close()
	if analytics != nil {
		analytics.Stop()
	}
	if db != nil {
		db.Close()
	}
}
