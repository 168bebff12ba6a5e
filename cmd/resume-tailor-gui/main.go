package main

import (
	"flag"
	"log"

	"github.com/fmuoria/resume-tailor/internal/config"
	"github.com/fmuoria/resume-tailor/internal/gui"
)

func main() {
	configPath := flag.String("config", "", "Read configuration from `path` instead of the default location")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Printf("Failed to load configuration, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}

	gui.NewApp(cfg).Run()
}
