// Package main is the entry point for the airfeed application.
package main

import (
	"github.com/airfeed/airfeed/cmd"
	"github.com/airfeed/airfeed/config"
	"github.com/airfeed/airfeed/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
