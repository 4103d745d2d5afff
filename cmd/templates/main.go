package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/database"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

func main() {
	ownerID := flag.Int64("owner", 0, "trainer user id that will own the imported templates (required)")
	dryRun := flag.Bool("dry-run", false, "validate the documents without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if flag.NArg() == 0 || (*ownerID <= 0 && !*dryRun) {
		fmt.Fprintf(os.Stderr, "Usage: templates -owner 7 [-dry-run] push.yaml [more.yaml ...]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	docs := make([]services.TemplateDocument, 0)
	for _, path := range flag.Args() {
		file, err := os.Open(path)
		if err != nil {
			log.Error("failed to open template file", "path", path, "error", err)
			os.Exit(1)
		}
		decoded, err := services.DecodeTemplateDocuments(file)
		file.Close()
		if err != nil {
			log.Error("failed to decode template file", "path", path, "error", err)
			os.Exit(1)
		}
		for _, doc := range decoded {
			if err := services.ValidateTemplateDocument(doc); err != nil {
				log.Error("invalid template", "path", path, "template", doc.Name, "error", err)
				os.Exit(1)
			}
		}
		docs = append(docs, decoded...)
	}

	if *dryRun {
		log.Info("templates are valid", "count", len(docs))
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found")
	}
	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		log.Error("DB_URL environment variable is required")
		os.Exit(1)
	}
	if err := database.ConnectDB(dbUrl, database.PoolOptions{MaxConns: 2, MinConns: 1}); err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB()

	ctx := context.Background()
	templates := services.NewTemplateService(database.DB)
	for _, doc := range docs {
		detail, err := templates.ImportTemplate(ctx, *ownerID, doc)
		if err != nil {
			log.Error("import failed", "template", doc.Name, "error", err)
			os.Exit(1)
		}
		log.Info("template imported",
			"template_id", detail.ID,
			"name", detail.Name,
			"blocks", len(detail.Blocks),
			"exercises", len(detail.Exercises),
		)
	}
	log.Info("import complete", "count", len(docs))
}
