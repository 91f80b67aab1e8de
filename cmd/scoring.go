package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fairexam/fairexam/internal/fairness"
)

var scoringCmd = &cobra.Command{
	Use:   "scoring",
	Short: "Inspect the fairness scoring policy",
}

var scoringDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default scoring policy as YAML",
	Long: "Print the default scoring policy as YAML. Save it, edit the values you want to\n" +
		"change and pass the file with --scoring-config; omitted keys keep their defaults.",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(fairness.DefaultConfig()); err != nil {
			return fmt.Errorf("encode scoring policy: %w", err)
		}
		return enc.Close()
	},
}

var scoringCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a scoring policy file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := fairness.LoadConfig(args[0])
		if err != nil {
			return err
		}
		w := cfg.Weights
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (weights %g/%g/%g, %d bands)\n",
			args[0], w.Difficulty, w.Blooms, w.Coverage, len(cfg.Bands))
		return nil
	},
}

func init() {
	scoringCmd.AddCommand(scoringDefaultsCmd)
	scoringCmd.AddCommand(scoringCheckCmd)
}
