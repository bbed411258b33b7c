package main

import "github.com/hydrotools/antecedent/internal/cli"

func main() {
	cli.Execute()
}
