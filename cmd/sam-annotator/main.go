package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/sam-annotator/internal/logging"
)

func main() {
	logging.Init()
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
