package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mailflow-io/mailflow/internal/config"
	"github.com/mailflow-io/mailflow/internal/db"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	pg, err := db.Connect(ctx, &cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect:", err)
		os.Exit(1)
	}
	defer pg.Close()

	seedFiles := []string{
		"seed/recipients.sql",
		"seed/campaigns.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", file, err)
			os.Exit(1)
		}
		if _, err := pg.Exec(string(content)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to execute %s: %v\n", file, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed")
}
