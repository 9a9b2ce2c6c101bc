package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zemedica/feereference/backend/internal/adapters/database"
	"github.com/zemedica/feereference/backend/internal/adapters/search"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/postgres"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/typesense"
	"github.com/zemedica/feereference/backend/internal/infrastructure/observability"
	"github.com/zemedica/feereference/backend/pkg/config"
)

const indexPageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("fee-reference-indexer", os.Getenv("APP_ENV"))

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		parsed, err := time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Str("interval", intervalValue).Err(err).Msg("invalid interval")
		}
		if parsed <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
		interval = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	procedureRepo := database.NewProcedureCodeAdapter(pgClient)
	searchRepo := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("deleting procedure_codes collection before reindex")
		if err := searchRepo.Reset(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	if err := searchRepo.InitSchema(ctx); err != nil {
		return err
	}

	indexed := 0
	failed := 0
	for offset := 0; ; offset += indexPageSize {
		codes, err := procedureRepo.List(ctx, repositories.ProcedureCodeFilter{
			Limit:  indexPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			break
		}

		for _, code := range codes {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := searchRepo.Index(ctx, code); err != nil {
				failed++
				log.Warn().Str("code", code.Code).Err(err).Msg("failed to index procedure code")
				continue
			}
			indexed++
		}

		if len(codes) < indexPageSize {
			break
		}
	}

	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("procedure code reindex finished")
	return nil
}
