package main

import "github.com/minhct/snapflow/internal/cli"

func main() {
	cli.Execute()
}
