package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/mockbroker/src/cmd/mockbroker/run"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
	"github.com/jiaming2012/mockbroker/src/mockbroker/services"
)

var rootCmd = &cobra.Command{
	Use:   "mockbroker",
	Short: "Simulated brokerage account replaying historical minute bars",
}

func setup(cmd *cobra.Command) *run.App {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		log.Fatalf("error getting config: %v", err)
	}

	envDir, err := cmd.Flags().GetString("env-dir")
	if err != nil {
		log.Fatalf("error getting env-dir: %v", err)
	}

	app, err := run.Setup(run.SetupArgs{ConfigPath: configPath, EnvDir: envDir})
	if err != nil {
		log.Fatalf("failed to setup: %v", err)
	}

	return app
}

func accountRequest(cmd *cobra.Command) services.CreateAccountRequest {
	accountID, err := cmd.Flags().GetString("account")
	if err != nil {
		log.Fatalf("error getting account: %v", err)
	}

	return services.CreateAccountRequest{ID: accountID}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve mock accounts over HTTP and websocket",
	Run: func(cmd *cobra.Command, args []string) {
		app := setup(cmd)

		if err := run.Serve(context.Background(), app); err != nil {
			log.Fatalf("serve: %v", err)
		}
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot --account default --symbols AAPL,MSFT",
	Short: "Print snapshots at the account's current mock time",
	Run: func(cmd *cobra.Command, args []string) {
		app := setup(cmd)

		symbols, err := cmd.Flags().GetStringSlice("symbols")
		if err != nil {
			log.Fatalf("error getting symbols: %v", err)
		}

		ctx := context.Background()
		err = app.WithAccount(ctx, accountRequest(cmd), func(account *models.MockAccount) error {
			snapshots, err := account.Snapshots(ctx, symbols)
			if err != nil {
				return err
			}

			run.RenderSnapshots(os.Stdout, snapshots)
			return nil
		})
		if err != nil {
			log.Fatalf("snapshot: %v", err)
		}
	},
}

var positionsCmd = &cobra.Command{
	Use:   "positions --account default",
	Short: "Print balance, equity and positions reconstructed from the fill ledger",
	Run: func(cmd *cobra.Command, args []string) {
		app := setup(cmd)

		ctx := context.Background()
		err := app.WithAccount(ctx, accountRequest(cmd), func(account *models.MockAccount) error {
			summary, err := account.Summary(ctx)
			if err != nil {
				return err
			}

			run.RenderSummary(os.Stdout, summary)
			return nil
		})
		if err != nil {
			log.Fatalf("positions: %v", err)
		}
	},
}

var exportFillsCmd = &cobra.Command{
	Use:   "export-fills --account default --out fills.csv",
	Short: "Write the account's fill ledger to a CSV file",
	Run: func(cmd *cobra.Command, args []string) {
		app := setup(cmd)

		out, err := cmd.Flags().GetString("out")
		if err != nil {
			log.Fatalf("error getting out: %v", err)
		}

		ctx := context.Background()
		err = app.WithAccount(ctx, accountRequest(cmd), func(account *models.MockAccount) error {
			fills := account.Fills()
			if err := services.ExportFillsCSV(out, fills); err != nil {
				return err
			}

			fmt.Printf("%d fills written to %s\n", len(fills), out)
			return nil
		})
		if err != nil {
			log.Fatalf("export-fills: %v", err)
		}
	},
}

var speedsCmd = &cobra.Command{
	Use:   "speeds",
	Short: "List the supported playback speeds",
	Run: func(cmd *cobra.Command, args []string) {
		app := setup(cmd)

		speeds := app.Config.Account.SupportedSpeeds
		if len(speeds) == 0 {
			speeds = models.SupportedPlaybackSpeeds
		}

		run.RenderSpeeds(os.Stdout, speeds, app.Config.Account.PlaybackSpeed)
	},
}

var downloadBarsCmd = &cobra.Command{
	Use:   "download-bars --symbols AAPL,MSFT --days 5",
	Short: "Save minute bars from the remote sources into the CSV directory",
	Run: func(cmd *cobra.Command, args []string) {
		app := setup(cmd)

		symbols, err := cmd.Flags().GetStringSlice("symbols")
		if err != nil {
			log.Fatalf("error getting symbols: %v", err)
		}

		days, err := cmd.Flags().GetInt("days")
		if err != nil {
			log.Fatalf("error getting days: %v", err)
		}

		written, err := run.DownloadBars(context.Background(), app, run.DownloadBarsArgs{
			Symbols: symbols,
			Days:    days,
		})
		if err != nil {
			log.Fatalf("download-bars: %v", err)
		}

		for _, symbol := range symbols {
			fmt.Printf("%s: %d bars\n", symbol, written[symbol])
		}
	},
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config file.")
	rootCmd.PersistentFlags().String("env-dir", "", "Directory holding the .env files.")

	for _, cmd := range []*cobra.Command{snapshotCmd, positionsCmd, exportFillsCmd} {
		cmd.Flags().String("account", "default", "The mock account id.")
	}

	snapshotCmd.Flags().StringSlice("symbols", []string{}, "Symbols to snapshot.")
	snapshotCmd.MarkFlagRequired("symbols")

	exportFillsCmd.Flags().String("out", "fills.csv", "The CSV file to write.")

	downloadBarsCmd.Flags().StringSlice("symbols", []string{}, "Symbols to download.")
	downloadBarsCmd.Flags().Int("days", 5, "Number of calendar days to download.")
	downloadBarsCmd.MarkFlagRequired("symbols")

	rootCmd.AddCommand(serveCmd, snapshotCmd, positionsCmd, exportFillsCmd, speedsCmd, downloadBarsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
