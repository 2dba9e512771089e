package main

import (
	"os"

	_ "incubator_monitor/docs"
	"incubator_monitor/internal/cli"
)

// @title           Incubator Monitor API
// @version         1.0
// @description     Device status, charts, daily averages, alert log and incubation cycles.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
