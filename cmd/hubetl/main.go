// Command hubetl copies recently modified HubSpot engagements into a SQL
// database and prints how many engagements of each type were created per
// day.
//
// It takes no flags; see internal/config for the environment it reads.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/TheF1rstPancake/hubspot/internal/config"
	"github.com/TheF1rstPancake/hubspot/internal/logger"
	"github.com/TheF1rstPancake/hubspot/internal/schema"

	// register every storage dialect; config picks one.
	_ "github.com/TheF1rstPancake/hubspot/internal/storage/all"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(config.Default().Log)
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := setupMetrics(cfg.Metrics, log)
	if err != nil {
		log.Error().Err(err).Msg("metrics setup failed")
		return 1
	}
	defer flush()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		var fe *schema.FatalError
		if errors.As(err, &fe) {
			log.Error().Msg(fe.Error())
			return 1
		}
		log.Error().Stack().Err(err).Msg("run failed")
		return 1
	}
	return 0
}
