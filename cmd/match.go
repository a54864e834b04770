package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screener"
)

var matchCmd = &cobra.Command{
	Use:   "match --job <job-file> (--resume <resume-file> | --profile <profile.json>)",
	Short: "Score one candidate against a job",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		env := setup(ctx)

		jobFile, _ := cmd.Flags().GetString("job")
		resumeFile, _ := cmd.Flags().GetString("resume")
		profileFile, _ := cmd.Flags().GetString("profile")
		extractRequirements, _ := cmd.Flags().GetBool("extract-requirements")

		jobText, err := readInput(jobFile)
		if err != nil {
			env.logger.Fatal("reading job description", zap.Error(err))
		}

		var opts []screener.MatchOption
		if extractRequirements {
			job, err := env.service.PrepareJob(ctx, screener.JobPosting{Description: jobText})
			if err != nil {
				env.logger.Fatal("preparing job", zap.Error(err))
			}
			opts = job.MatchOptions()
		}

		var profile map[string]any
		switch {
		case profileFile != "":
			data, err := readInput(profileFile)
			if err != nil {
				env.logger.Fatal("reading profile", zap.Error(err))
			}
			if err := json.Unmarshal([]byte(data), &profile); err != nil {
				env.logger.Fatal("parsing profile", zap.Error(err))
			}
			if resumeFile != "" {
				resumeText, err := readInput(resumeFile)
				if err != nil {
					env.logger.Fatal("reading resume", zap.Error(err))
				}
				opts = append(opts, screener.WithResumeText(resumeText))
			}
		case resumeFile != "":
			resumeText, err := readInput(resumeFile)
			if err != nil {
				env.logger.Fatal("reading resume", zap.Error(err))
			}
			extracted, err := env.service.ExtractProfile(ctx, resumeText)
			if err != nil {
				env.logger.Fatal("extracting profile", zap.Error(err))
			}
			result, err := env.service.MatchProfile(ctx, extracted, jobText, append(opts, screener.WithResumeText(resumeText))...)
			printMatch(env, result, err)
			return
		default:
			env.logger.Fatal("either --resume or --profile is required")
		}

		result, err := env.service.Match(ctx, profile, jobText, opts...)
		printMatch(env, result, err)
	},
}

func printMatch(e *env, result any, err error) {
	if err != nil {
		var contractErr *screener.CallerContractError
		if errors.As(err, &contractErr) {
			e.logger.Fatal("invalid input", zap.Error(err))
		}
		e.logger.Warn("matching interrupted, printing degraded result", zap.Error(err))
	}

	if err := printJSON(result); err != nil {
		e.logger.Fatal("printing match result", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("job", "", "file with the job description, - for stdin")
	matchCmd.Flags().String("resume", "", "file with the resume text, also shown to the model next to --profile")
	matchCmd.Flags().String("profile", "", "json file with a previously extracted profile")
	matchCmd.Flags().Bool("extract-requirements", false, "extract job requirements first and pass them to the matching prompt")
	matchCmd.MarkFlagRequired("job")
}
