package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/swfsim/swfsim/sim/workload"
)

var (
	generateSpecPath string
	generatePreset   string
	defaultsFilePath string
	generateOutPath  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic SWF trace from a YAML spec",
	Long:  "Generate a synthetic SWF trace from --spec or from a named --preset in defaults.yaml. Output is written to --out, or stdout for piping.",
	Run: func(cmd *cobra.Command, args []string) {
		spec := resolveGeneratorSpec()
		swf, err := workload.Generate(spec)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}

		if generateOutPath == "" {
			if err := workload.WriteSWF(os.Stdout, swf.Header, swf.Records); err != nil {
				logrus.Fatalf("Unable to write trace: %v", err)
			}
		} else if err := writeTraceFile(generateOutPath, swf); err != nil {
			logrus.Fatalf("Unable to write trace: %v", err)
		}
		logrus.Infof("Generated %d jobs", len(swf.Records))
	},
}

// resolveGeneratorSpec loads the spec named by exactly one of --spec and --preset.
func resolveGeneratorSpec() *workload.GeneratorSpec {
	switch {
	case generateSpecPath != "" && generatePreset != "":
		logrus.Fatalf("--spec and --preset are mutually exclusive")
	case generateSpecPath != "":
		spec, err := workload.LoadGeneratorSpec(generateSpecPath)
		if err != nil {
			logrus.Fatalf("Failed to load generator spec: %v", err)
		}
		return spec
	case generatePreset != "":
		spec, err := loadPresetWorkload(defaultsFilePath, generatePreset)
		if err != nil {
			logrus.Fatalf("Failed to load presets: %v", err)
		}
		if spec == nil {
			cfg, _ := loadDefaultsConfig(defaultsFilePath)
			logrus.Fatalf("Unknown preset %q. Available: %v", generatePreset, presetNames(cfg))
		}
		return spec
	}
	logrus.Fatalf("One of --spec or --preset is required")
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&generateSpecPath, "spec", "", "Path to generator YAML spec")
	generateCmd.Flags().StringVar(&generatePreset, "preset", "", "Name of a workload preset in the defaults file")
	generateCmd.Flags().StringVar(&defaultsFilePath, "defaults-filepath", "defaults.yaml", "Path to the defaults file holding workload presets")
	generateCmd.Flags().StringVar(&generateOutPath, "out", "", "Output SWF path (default stdout)")

	rootCmd.AddCommand(generateCmd)
}

// writeTraceFile writes swf to path. Close errors are returned too.
func writeTraceFile(path string, swf *workload.Trace) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := workload.WriteSWF(file, swf.Header, swf.Records); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
