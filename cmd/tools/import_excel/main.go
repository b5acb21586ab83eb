package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/vichambarde/serverroom/internal/config"
	"github.com/vichambarde/serverroom/internal/store/postgres"
	"github.com/vichambarde/serverroom/pkg/importer"
)

const usage = "Usage: import_excel --file=path.xlsx [--mapping=configs/mapping/stock.yaml] [--max-errors=50] [--dry-run]"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var filePath, mappingPath string
	maxErrors := 50
	dryRun := false

	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasPrefix(arg, "--file="):
			filePath = strings.TrimPrefix(arg, "--file=")
		case strings.HasPrefix(arg, "--mapping="):
			mappingPath = strings.TrimPrefix(arg, "--mapping=")
		case strings.HasPrefix(arg, "--max-errors="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--max-errors="))
			if err != nil || n < 0 {
				log.Fatalf("Invalid max-errors: %q", arg)
			}
			maxErrors = n
		case arg == "--dry-run":
			dryRun = true
		}
	}

	if filePath == "" {
		fmt.Println("Error: file is required")
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	ctx := context.Background()
	store, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing stock from %s (dry_run=%v)\n", filePath, dryRun)
	fmt.Println(strings.Repeat("=", 61))

	catalog := store.Catalog()
	restock := importer.RestockFunc(func(ctx context.Context, name string, qty int) (bool, error) {
		_, created, err := catalog.AddStock(ctx, name, qty)
		return created, err
	})

	summary, err := importer.ImportExcel(ctx, restock, file, importer.ImportOptions{
		MappingPath: mappingPath,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
	})
	if err != nil {
		// summary still describes the rows handled before the failure
		log.Printf("Import failed: %v", err)
	}
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Items created: %d\n", summary.Created)
	fmt.Printf("Items restocked: %d\n", summary.Restocked)
	fmt.Printf("Valid rows: %d\n", summary.Valid)
	fmt.Printf("Skipped rows: %d\n", summary.Skipped)
	fmt.Printf("Errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: created=%d, restocked=%d, valid=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Created, sheet.Restocked, sheet.Valid, sheet.Skipped, sheet.Errors)

			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}

	if err != nil {
		os.Exit(1)
	}
}
