package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"studiodesk/pkg/config"
	"studiodesk/pkg/db"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	status := flag.Bool("status", false, "print the current migration version and exit")
	flag.Parse()

	cfg := config.Load()
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	if *status {
		v, dirty, err := db.MigrationVersion(cfg.MigrationsPath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "version failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("version %d dirty=%v\n", v, dirty)
		return
	}

	if *down > 0 {
		if err := db.MigrateDown(cfg.MigrationsPath, cfg, *down); err != nil {
			fmt.Fprintf(os.Stderr, "migrate down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d migration(s)\n", *down)
		return
	}

	// This uses DIRECT_URL if set (recommended for Supabase migrations).
	if err := db.MigrateUp(cfg.MigrationsPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	// Optional sanity check: ensure runtime connection can open (uses DATABASE_URL if set).
	// We don't print DSNs here to avoid leaking secrets into logs.
	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	pool.Close()

	fmt.Println("migrations applied")
}
