// Package main is the entry point for dramaplay.
package main

import (
	"github.com/dramaplay/dramaplay/cmd"
	"github.com/dramaplay/dramaplay/config"
	"github.com/dramaplay/dramaplay/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
