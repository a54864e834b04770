package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractProfileCmd = &cobra.Command{
	Use:   "extract-profile <resume-file|->",
	Short: "Extract a structured profile from resume text",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		env := setup(ctx)

		text, err := readInput(args[0])
		if err != nil {
			env.logger.Fatal("reading resume", zap.Error(err))
		}

		profile, err := env.service.ExtractProfile(ctx, text)
		if err != nil {
			env.logger.Warn("extraction interrupted, printing degraded profile", zap.Error(err))
		}

		if err := printJSON(profile); err != nil {
			env.logger.Fatal("printing profile", zap.Error(err))
		}
	},
}

var extractJobCmd = &cobra.Command{
	Use:   "extract-job <job-file|->",
	Short: "Extract structured requirements from a job description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		env := setup(ctx)

		text, err := readInput(args[0])
		if err != nil {
			env.logger.Fatal("reading job description", zap.Error(err))
		}

		job, err := env.service.ExtractJobRequirements(ctx, text)
		if err != nil {
			env.logger.Warn("extraction interrupted, printing default requirements", zap.Error(err))
		}

		var out any = job
		if flat, _ := cmd.Flags().GetBool("flat"); flat {
			out = job.Flatten()
		}

		if err := printJSON(out); err != nil {
			env.logger.Fatal("printing requirements", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(extractProfileCmd)
	rootCmd.AddCommand(extractJobCmd)

	extractJobCmd.Flags().Bool("flat", false, "print requirements as flattened display lines")
}
