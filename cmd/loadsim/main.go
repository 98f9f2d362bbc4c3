package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "loadsim",
	Short: "Discrete-event simulator for web-serving topologies",
	Long: `loadsim simulates clients, a DNS server, an optional gateway load balancer,
and a backend server pool in virtual time, to study how load-balancing
strategy, DNS caching, service-time distribution, and offered load affect
latency, queue depth, utilization, and drop rate.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(sweepCmd)
}

// Commands are defined in separate files:
// - sweepCmd in sweep.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
