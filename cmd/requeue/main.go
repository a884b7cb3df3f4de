package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"video-streamer/internal/database"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultDatabaseDir = "/data/database"
)

// requeue resets failed videos to the uploaded state so the server picks
// them up for another transcode attempt on its next startup recovery
// pass.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "videos.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "failed":
		if !requeueFailed(ctx, db) {
			os.Exit(1)
		}
	case "status":
		showStatus(ctx, db)
	default:
		fmt.Fprintln(os.Stderr, "Unknown command")
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Video Streamer Transcode Queue Management")
	fmt.Println("")
	fmt.Println("Usage: requeue <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  failed  - Reset failed videos for another transcode attempt")
	fmt.Println("  status  - Show video counts per processing state")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func requeueFailed(ctx context.Context, db *database.Database) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	failed, err := db.ListVideosByStatus(ctx, database.StatusFailed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list failed videos: %v\n", err)
		return false
	}
	if len(failed) == 0 {
		fmt.Println("No failed videos to requeue.")
		return true
	}

	reset := 0
	for _, v := range failed {
		if err := db.UpdateStatus(ctx, v.VideoID, database.StatusUploaded); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to reset %s: %v\n", v.VideoID, err)
			continue
		}
		fmt.Printf("  requeued %s (%s)\n", v.VideoID, v.Title)
		reset++
	}

	fmt.Printf("Reset %d of %d failed videos.\n", reset, len(failed))
	fmt.Println("They will be transcoded on the next server start.")
	return reset == len(failed)
}

func showStatus(ctx context.Context, db *database.Database) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	states := []database.Status{
		database.StatusUploaded,
		database.StatusTranscoding,
		database.StatusReady,
		database.StatusFailed,
	}

	fmt.Println("Videos per processing state:")
	for _, status := range states {
		list, err := db.ListVideosByStatus(ctx, status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list %s videos: %v\n", status, err)
			return
		}
		fmt.Printf("  %-12s %d\n", status, len(list))
	}
}
