package main

import (
	"github.com/caas-team/availtrack/cmd"
)

// version is the current version of availtrack
// It is set at build time by using -ldflags "-X main.version=x.x.x"
var version string

func main() {
	cmd.Execute(version)
}
