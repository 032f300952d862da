package main

import (
	"flag"
	"log"

	"xpd/internal/di"
	"xpd/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "log to stderr as well as the log files")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		log.Fatal(err)
	}
}
