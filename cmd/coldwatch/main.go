package main

import (
	"coldwatch/internal/cli"
)

func main() {
	cli.Execute()
}
