// imectl inspects imecompose configuration and the commit journal.
package main

import (
	"os"

	"imecompose/cmd/imectl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
