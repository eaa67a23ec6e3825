// resync-sheets rewrites the Google Sheet of every stored user from their
// saved document. Run it after a layout change or a failed batch of exports.
//
// It reads the same environment as the server. Users without a sheet get one
// created, exactly as on their next save.
//
// Usage:
//
//	export SESSION_SECRET=unused STORE_BACKEND=firestore GOOGLE_CLOUD_PROJECT=...
//	export GOOGLE_SERVICE_ACCOUNT_JSON="$(cat sa.json)"
//	go run ./scripts/resync-sheets/ [-dry-run] [email ...]
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/jimikki-app/backend/internal/config"
	"github.com/jimikki-app/backend/internal/finance"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/model"
	"github.com/jimikki-app/backend/internal/sheets"
	"github.com/jimikki-app/backend/internal/store"
)

const pageSize = 100

func main() {
	dryRun := flag.Bool("dry-run", false, "list the users that would be exported")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logging.New(os.Stderr, "text", "error").Error(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, "text", cfg.LogLevel).With("component", "resync")

	if !cfg.SheetsConfigured() {
		log.Error(ctx, "no service account configured")
		os.Exit(1)
	}

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	money := finance.Formatter{Symbol: cfg.CurrencySymbol, Grouping: finance.ParseGrouping(cfg.CurrencyGrouping)}
	creds := sheets.Credentials{JSON: cfg.ServiceAccountJSON, Email: cfg.ServiceEmail, Key: cfg.ServiceKey}
	exporter := sheets.NewExporter(st, sheets.NewGoogleConnector(creds), cfg.DriveFolderID, money, log)

	emails := flag.Args()
	if len(emails) == 0 {
		emails, err = allEmails(ctx, st)
		if err != nil {
			log.Error(ctx, "failed to list users", "error", err)
			os.Exit(1)
		}
	}

	var synced, skipped, failed int
	for _, email := range emails {
		raw, err := st.GetUserData(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			skipped++
			continue
		}
		if err != nil {
			log.Error(ctx, "failed to read document", "email", email, "error", err)
			failed++
			continue
		}
		doc, err := model.Decode([]byte(raw))
		if err != nil {
			log.Warn(ctx, "skipping invalid document", "email", email, "error", err)
			skipped++
			continue
		}

		if *dryRun {
			log.Info(ctx, "would export", "email", email, "transactions", len(doc.Transactions))
			synced++
			continue
		}

		url, err := exporter.Export(ctx, email, doc)
		if err != nil {
			log.Error(ctx, "export failed", "email", email, "error", err)
			failed++
			continue
		}
		log.Info(ctx, "exported", "email", email, "url", url)
		synced++
	}

	log.Info(ctx, "resync complete", "synced", synced, "skipped", skipped, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func allEmails(ctx context.Context, st store.Store) ([]string, error) {
	var (
		all   []string
		token string
	)
	for {
		page, next, err := st.ListUserEmails(ctx, pageSize, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}
