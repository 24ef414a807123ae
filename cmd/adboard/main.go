package main

import (
	"log"
	_ "time/tzdata"

	"github.com/m3rciful/adboard/bot/app"
	"github.com/m3rciful/adboard/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.Load,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
