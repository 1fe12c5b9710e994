package main

import (
	"github.com/reach-http/reach/internal/cli"
)

func main() {
	cli.Execute()
}
