package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/metailurini/ravl/internal/report"
	"github.com/metailurini/ravl/internal/workload"
)

const (
	defaultVerifySteps = 20000
	defaultVerifyKeys  = 1024
)

func newVerifyCommand(configPath *string) *cobra.Command {
	var (
		steps int
		keys  int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Audit single-threaded updates against a reference map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 || keys <= 0 {
				return fmt.Errorf("steps and keys must be positive: steps=%d keys=%d", steps, keys)
			}

			s, err := setup(cmd, *configPath, nil)
			if err != nil {
				return err
			}
			defer s.close()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			rep, auditErr := workload.Audit(s.m, steps, keys, seed, s.logger)
			fmt.Fprintln(cmd.OutOrStdout(), report.Audit(rep, auditErr))

			if auditErr != nil {
				return fmt.Errorf("audit with seed %d: %w", seed, auditErr)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", defaultVerifySteps, "number of random operations")
	cmd.Flags().IntVar(&keys, "keys", defaultVerifyKeys, "keys are drawn from [0, keys)")
	cmd.Flags().Int64VarP(&seed, "seed", "s", 0, "random seed, 0 for time based")

	return cmd
}
