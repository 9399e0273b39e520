package main

import (
	"os"

	"github.com/wonny/printdesk/backend/cmd/printdesk/commands"
)

// main is the entry point for the printdesk CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/printdesk [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
