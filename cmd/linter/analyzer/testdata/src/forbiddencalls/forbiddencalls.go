package forbiddencalls

import (
	"log"
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func OpenStorage() {
	panic("storage unavailable") // want "panic is forbidden"
}

func LoadConfig() {
	log.Fatal("bad config") // want "log.Fatal is forbidden outside main function"
}

func LoadConfigf() {
	log.Fatalf("bad config: %s", "x") // want "log.Fatalf is forbidden outside main function"
}

func Shutdown() {
	os.Exit(1) // want "os.Exit is forbidden outside main function"
}

func Serve() {
	zlog.Fatal().Msg("listen failed") // want "log.Fatal is forbidden outside main function"
	zlog.Info().Msg("allowed")
}

func ServeWith(logger zerolog.Logger) {
	logger.Panic().Msg("boom") // want "zerolog.Logger.Panic is forbidden outside main function"
	logger.Info().Msg("allowed")
}

type server struct{}

func (server) main() {
	os.Exit(0) // want "os.Exit is forbidden outside main function"
}

func MultipleCalls() {
	panic("panic 1")   // want "panic is forbidden"
	log.Fatal("fatal") // want "log.Fatal is forbidden outside main function"
	os.Exit(0)         // want "os.Exit is forbidden outside main function"
}
