/*
main.go - Application entry point

PURPOSE:
  Builds financial-document download plans from cohort CSVs, and optionally
  serves the plan store over HTTP. Handles configuration, dependency
  injection, and graceful shutdown.

MODES:
  Batch (default):
    Load config + cohort CSVs, validate, build the plan, write the job
    matrix as CSV, print the run summary. With -db the plan is also
    persisted for the download pipeline to resume against.

  Serve (-serve):
    Start the HTTP API over the SQLite store. Plans can then be built,
    inspected and checkpointed via REST.

COMMAND-LINE FLAGS:
  -config          Config file path, YAML or JSON (optional; defaults apply)
  -defaulters      Defaulter cohort CSV (required in batch mode)
  -non-defaulters  Non-defaulter cohort CSV (required in batch mode)
  -output          Output CSV path (default: download_plan.csv)
  -db              SQLite database path ("" = no persistence; ":memory:" works)
  -serve           Run the HTTP API instead of a batch build
  -port            HTTP server port (default: 8080)

EXIT CODES:
  0  Plan built (validation findings and warnings are report-only)
  1  Config error or missing columns

GRACEFUL SHUTDOWN (serve mode):
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Batch build with defaults
  ./planner -defaulters=defaulters.csv -non-defaulters=others.csv

  # Batch build, custom config, persisted
  ./planner -config=plan.yaml -defaulters=d.csv -non-defaulters=n.csv -db=plans.db

  # API server
  ./planner -serve -db=plans.db -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - plan/assemble.go: The build itself
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fulcrum/download-planner/api"
	"github.com/fulcrum/download-planner/cohort"
	"github.com/fulcrum/download-planner/factory"
	"github.com/fulcrum/download-planner/plan"
	"github.com/fulcrum/download-planner/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "config file (YAML or JSON; omit for defaults)")
	defaultersPath := flag.String("defaulters", "", "defaulter cohort CSV")
	nonDefaultersPath := flag.String("non-defaulters", "", "non-defaulter cohort CSV")
	outputPath := flag.String("output", "download_plan.csv", "output CSV path")
	dbPath := flag.String("db", "", "SQLite database path (empty = no persistence)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a batch build")
	port := flag.Int("port", 8080, "HTTP server port")
	flag.Parse()

	if *serve {
		runServer(*dbPath, *port)
		return
	}
	runBatch(*configPath, *defaultersPath, *nonDefaultersPath, *outputPath, *dbPath)
}

// =============================================================================
// BATCH MODE
// =============================================================================

func runBatch(configPath, defaultersPath, nonDefaultersPath, outputPath, dbPath string) {
	if defaultersPath == "" || nonDefaultersPath == "" {
		log.Fatal("batch mode needs -defaulters and -non-defaulters (or use -serve)")
	}

	cfg := plan.DefaultConfig()
	if configPath != "" {
		loaded, err := factory.LoadConfigFile(configPath)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		cfg = loaded
	}

	defaulters, err := cohort.LoadFile(defaultersPath, plan.CohortDefaulter)
	if err != nil {
		log.Fatalf("Failed to load defaulter cohort: %v", err)
	}
	nonDefaulters, err := cohort.LoadFile(nonDefaultersPath, plan.CohortNonDefaulter)
	if err != nil {
		log.Fatalf("Failed to load non-defaulter cohort: %v", err)
	}

	// Validation findings are report-only: flagged rows still plan (a bad
	// CIN just classifies as unlisted). Only configuration errors abort.
	for _, report := range []*cohort.Report{
		cohort.Validate(defaulters, plan.CohortDefaulter),
		cohort.Validate(nonDefaulters, plan.CohortNonDefaulter),
	} {
		for _, f := range report.Findings {
			log.Printf("[%s] %s cohort row %d (%s): %s", f.Severity, report.Cohort, f.Row, f.Company, f.Message)
		}
	}

	result, err := plan.Build(plan.BuildInput{
		Defaulters:    defaulters,
		NonDefaulters: nonDefaulters,
		Config:        cfg,
	})
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}

	for _, w := range result.Warnings {
		log.Printf("[warning] %s %s: %s", w.Cohort, w.CompanyName, w.Message)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	if err := plan.WriteCSV(out, result.Jobs); err != nil {
		out.Close()
		log.Fatalf("Failed to write plan: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("Failed to write plan: %v", err)
	}

	if dbPath != "" {
		store, err := sqlite.New(dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()
		id, err := store.SavePlan(context.Background(), result)
		if err != nil {
			log.Fatalf("Failed to save plan: %v", err)
		}
		log.Printf("Plan saved as %s", id)
	}

	printSummary(result, outputPath)
}

// printSummary writes the operator-facing run report to stdout.
func printSummary(result *plan.Result, outputPath string) {
	s := result.Summarize()

	fmt.Println("Download plan written to", outputPath)
	fmt.Printf("  companies:            %d\n", s.Companies)
	for _, c := range []plan.Cohort{plan.CohortDefaulter, plan.CohortNonDefaulter} {
		fmt.Printf("    %-20s %d\n", string(c)+":", s.CompaniesByCohort[c])
	}
	fmt.Printf("  company-year targets: %d\n", s.CompanyYearTargets)
	fmt.Printf("  jobs:                 %d (%d required, %d optional)\n",
		s.TotalJobs, s.RequiredJobs, s.OptionalJobs)

	profiles := make([]string, 0, len(s.SourceProfiles))
	for p := range s.SourceProfiles {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	for _, p := range profiles {
		fmt.Printf("  source profile %-14s %d companies\n", p+":", s.SourceProfiles[p])
	}
	if s.Warnings > 0 {
		fmt.Printf("  warnings:             %d (see log above)\n", s.Warnings)
	}
}

// =============================================================================
// SERVE MODE
// =============================================================================

func runServer(dbPath string, port int) {
	if dbPath == "" {
		dbPath = "plans.db"
	}

	// Initialize store
	store, err := sqlite.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Create router
	router := api.NewRouter(api.NewHandler(store))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Planner API on http://localhost:%d/api", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
