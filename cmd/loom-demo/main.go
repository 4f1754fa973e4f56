// loom-demo drives a small flat-mapping unit through the cooperative
// execution loop: bounded outbox, suspension on backpressure, completion
// polling. It exists to show the library wiring end to end.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/processor"
	"github.com/tarungka/loom/stream"
	"github.com/tarungka/loom/traverse"
)

var (
	buildString = "unknown"
	ko          = koanf.New(".")
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	initFlags(ko)

	if ko.Bool("version") {
		fmt.Println(buildString)
		os.Exit(0)
	}
	if ko.Bool("dev") {
		logger.SetDevelopment(true)
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	capacity := ko.Int("capacity")
	items := ko.Strings("items")
	if len(items) == 0 {
		items = []string{"foo", "bar", "baz"}
	}
	log.Info().Int("capacity", capacity).Strs("items", items).Msg("starting demo unit")

	// One input becomes the item itself plus its uppercase twin.
	unit := processor.NewFlatMapProcessor(0, func(it stream.Item) traverse.Traverser {
		s := it.(string)
		return traverse.Over(s, strings.ToUpper(s))
	})

	out := processor.NewBufferedOutbox(1, capacity)
	ctx := processor.NewContext(out, true)
	if err := unit.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("unit failed to init")
	}

	inbox := processor.NewArrayInbox(0)
	for _, item := range items {
		inbox.Add(item)
		for !inbox.IsEmpty() {
			if err := unit.Process(0, inbox); err != nil {
				log.Fatal().Err(err).Msg("unit failed while processing")
			}
			emit(out)
		}
	}

	for {
		status, err := unit.Complete()
		if err != nil {
			log.Fatal().Err(err).Msg("unit failed while completing")
		}
		emit(out)
		if status.IsDone() {
			break
		}
	}
	log.Info().Msg("demo unit completed")
}

func emit(out *processor.BufferedOutbox) {
	for _, it := range out.DrainQueue(0) {
		fmt.Println(it)
	}
}
