package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	seedClub  string
	seedFile  string
	seedActor string
)

var seedCmd = &cobra.Command{
	Use:   "seed-accounts",
	Short: "Create a club's chart of accounts from a YAML file",
	Long: `Create a club's chart of accounts from a YAML seed document.

Example file:
  accounts:
    - code: "1000"
      name: Assets
      category: ASSET
      header: true
      children:
        - code: "1100"
          name: Current account
          category: ASSET
          bank: true`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedClub, "club", "", "Club ID (required)")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Seed document path (required)")
	seedCmd.Flags().StringVar(&seedActor, "actor", "system", "Actor recorded in the audit log")

	_ = seedCmd.MarkFlagRequired("club")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	created, err := rt.services.Seeder.SeedChart(cmd.Context(), seedClub, raw, seedActor)
	if err != nil {
		return err
	}
	logger.Info("Chart of accounts seeded", slog.String("club_id", seedClub), slog.Int("created", created))
	fmt.Fprintf(cmd.OutOrStdout(), "created %d accounts\n", created)
	return nil
}
