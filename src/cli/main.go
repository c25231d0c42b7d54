package main

import (
	"os"

	"github.com/sofmeright/loq/src/cli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
