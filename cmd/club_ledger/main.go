// Package main is the entry point for the club_ledger server and operator CLI.
package main

import (
	"os"

	"github.com/SscSPs/club_ledger/cmd/club_ledger/cmd"
)

//go:generate swag init -g main.go -d .,../../internal/handlers,../../internal/dto,../../internal/core/domain -o ../docs

// @title Club Ledger API
// @version 1.0
// @description General ledger, fiscal calendar, budgets and bank reconciliation for clubs.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
