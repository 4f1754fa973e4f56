package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func initFlags(ko *koanf.Koanf) {
	f := flag.NewFlagSet("config", flag.ContinueOnError)
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	f.StringSlice("config", nil, "path to one or more config files (will be merged in order)")
	f.StringSlice("items", nil, "input items to feed through the demo unit")
	f.Int("capacity", 1, "outbox capacity per destination")
	f.Bool("dev", false, "human-readable trace logging")
	f.Bool("version", false, "show current version of the build")

	if err := f.Parse(os.Args[1:]); err != nil {
		log.Fatal().Msgf("error loading flags: %v", err)
	}

	configs, _ := f.GetStringSlice("config")
	for _, path := range configs {
		var parser koanf.Parser
		switch path[strings.LastIndex(path, ".")+1:] {
		case "yaml", "yml":
			parser = yaml.Parser()
		case "json":
			parser = json.Parser()
		default:
			log.Fatal().Msgf("unsupported config extension: %s", path)
		}
		log.Debug().Msgf("Reading config from %s", path)
		if err := ko.Load(file.Provider(path), parser); err != nil {
			log.Fatal().Msgf("error reading config: %v", err)
		}
	}

	if err := ko.Load(posflag.Provider(f, ".", ko), nil); err != nil {
		log.Fatal().Msgf("error reading flag config: %v", err)
	}
}
