package cmd

import (
	"fmt"
	"time"

	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var (
	tokenClub     string
	tokenActor    string
	tokenOverride bool
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		signed, err := issueToken(cfg.JWTSecret, cfg.JWTIssuer, tokenClub, tokenActor, tokenOverride, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenClub, "club", "", "Club ID (required)")
	tokenCmd.Flags().StringVar(&tokenActor, "actor", "", "Actor the token acts as (required)")
	tokenCmd.Flags().BoolVar(&tokenOverride, "override-closed", false, "Allow posting into closed periods")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "Token lifetime")

	_ = tokenCmd.MarkFlagRequired("club")
	_ = tokenCmd.MarkFlagRequired("actor")
}

func issueToken(secret, issuer, club, actor string, override bool, ttl time.Duration, now time.Time) (string, error) {
	claims := middleware.LedgerClaims{
		ClubID:            club,
		CanOverrideClosed: override,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
