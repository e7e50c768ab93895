package main

import "github.com/bobmcallan/perfstrip/internal/cli"

func main() {
	cli.Execute()
}
