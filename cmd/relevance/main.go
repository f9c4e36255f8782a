package main

import "github.com/fundgrove/relevance/internal/cli"

func main() {
	cli.Execute()
}
