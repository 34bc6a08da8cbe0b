package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/swfsim/swfsim/sim/workload"
)

var inspectTracePath string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize an SWF trace as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		swf, err := workload.LoadSWF(inspectTracePath)
		if err != nil {
			logrus.Fatalf("Unable to load trace: %v", err)
		}
		data, err := yaml.Marshal(workload.Describe(swf))
		if err != nil {
			logrus.Fatalf("YAML marshal failed: %v", err)
		}
		fmt.Print(string(data))
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectTracePath, "trace", "", "Path to the SWF workload trace")
	_ = inspectCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(inspectCmd)
}
