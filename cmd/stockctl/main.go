// Package main - stockctl CLI
//
// Usage:
//
//	go run ./cmd/stockctl token --subject alice
//	go run ./cmd/stockctl stocks list TS
package main

import (
	"os"

	"github.com/wonny/stockmarket/cmd/stockctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
