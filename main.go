package main

import "github.com/id8-org/id8/internal/cli"

func main() {
	cli.Execute()
}
