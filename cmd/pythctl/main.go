package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/MikhailRaia/pyth/internal/cli"
	"github.com/MikhailRaia/pyth/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.InitLogger("warn")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("pythctl failed")
	}
}
