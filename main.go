package main

import (
	cmd "github.com/novelpack/novelpack/internal/cli"
)

func main() {
	cmd.Execute()
}
