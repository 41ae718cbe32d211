package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func NewCmdRoot(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "availtrack",
		Short: "Availtrack, the synthetic availability tracker",
		Long: "Availtrack periodically tests the availability of an API gateway and its backends.\n" +
			"The results are exposed via an API, as prometheus metrics and delivered to a collector.",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	return rootCmd
}

func Execute(version string) {
	cobra.OnInitialize(initConfig)

	cmd := NewCmdRoot(version)
	cmd.AddCommand(NewCmdRun(version))
	cmd.AddCommand(NewCmdGenDocs(cmd))

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads the config file and the environment.
// Nested keys are read from variables like APIMANAGEMENT_GATEWAYURL.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to read config file:", err)
		os.Exit(1)
	}
}
