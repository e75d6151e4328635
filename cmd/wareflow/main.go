package main

import "github.com/wareflow/wareflow-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
