package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mdung/RentMaster-sub002/cmd/cli/client"
	"github.com/mdung/RentMaster-sub002/internal/models"
)

var apiClient *client.APIClient

var rootCmd = &cobra.Command{
	Use:   "rentmaster",
	Short: "RentMaster CLI - recurring billing and report schedules",
	Long: `RentMaster CLI manages recurring invoice schedules and scheduled
reports: listing them, triggering manual runs, and flipping schedules
active or inactive.`,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "RentMaster server URL")

	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newContractsCommand())
	rootCmd.AddCommand(newSchedulesCommand(models.KindInvoice))
	rootCmd.AddCommand(newSchedulesCommand(models.KindReport))
}

func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfgPath := filepath.Join(home, ".rentmaster")
	if err := os.MkdirAll(cfgPath, 0o755); err == nil {
		viper.AddConfigPath(cfgPath)
	}
	viper.SetConfigName("cli")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		viper.SafeWriteConfig()
	}
}

func main() {
	initConfig()

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		server, _ := cmd.Flags().GetString("server")
		apiClient = client.NewAPIClient(server)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
