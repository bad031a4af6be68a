package main

import "github.com/mcoot/shatterrealms/internal/cli"

func main() {
	cli.Execute()
}
