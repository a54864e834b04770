package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screener"
	"github.com/spigell/resume-screener/internal/screening"
)

const (
	PromptReport  = "Report by recommendation"
	PromptDetails = "Show candidate details"
	PromptFilters = "Show filters"
	PromptDump    = "Dump results to file"
	PromptExit    = "Exit"
	PromptBack    = "back"
)

var errExit = errors.New("exit requested")

var screenPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReport, PromptDetails, PromptFilters, PromptDump, PromptExit},
}

var screenCmd = &cobra.Command{
	Use:   "screen --job <job-file> [resume-file...]",
	Short: "Rank a batch of candidates against one job",
	Run: func(cmd *cobra.Command, args []string) {
		screen(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().String("job", "", "file with the job description, - for stdin")
	screenCmd.Flags().String("title", "", "job title, extracted from the description when empty")
	screenCmd.Flags().String("candidates", "", "json file with candidates and optional stored profiles")
	screenCmd.Flags().BoolP("yes", "y", false, "print the report and dump results without asking")
	screenCmd.Flags().Int("concurrency", 0, "candidates screened in parallel")
	screenCmd.Flags().Int("top", 0, "keep only the n best candidates")
	screenCmd.Flags().Float64("minimum-score", 0, "drop candidates scoring below this")
	screenCmd.Flags().String("minimum-recommendation", "", "drop candidates below this recommendation")
	screenCmd.Flags().Bool("exclude-degraded", false, "drop results the model never produced a valid answer for")
	screenCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to skip. Default is unset.")
	screenCmd.Flags().Bool("record-rejected", false, "append filtered out candidates to the exclude file")
	screenCmd.MarkFlagRequired("job")

	for _, name := range []string{"concurrency", "top", "minimum-score", "minimum-recommendation", "exclude-degraded", "exclude-file", "record-rejected"} {
		flag := screenCmd.Flags().Lookup(name)
		viper.BindPFlag("screening."+name, flag)
	}
}

func screen(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := setup(ctx)
	logger := env.logger

	logger.Info("starting the screening", zap.String("version", version))

	jobFile, _ := cmd.Flags().GetString("job")
	title, _ := cmd.Flags().GetString("title")
	candidatesFile, _ := cmd.Flags().GetString("candidates")

	description, err := readInput(jobFile)
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	candidates, duplicates, err := loadCandidates(candidatesFile, args)
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}
	if len(duplicates) > 0 {
		logger.Warn("skipping duplicate candidates", zap.Strings("candidates", duplicates))
	}

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates given"))
		return
	}

	job, err := env.service.PrepareJob(ctx, screener.JobPosting{Title: title, Description: description})
	if err != nil {
		logger.Fatal("preparing job", zap.Error(err))
	}

	logger.Info("job prepared",
		zap.String("title", job.Title),
		zap.Strings("requirements", job.Requirements),
		zap.Int("candidates", candidates.Len()),
	)

	results, err := screening.Run(ctx, env.service, job, candidates, env.config.Screening, logger)
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	if results.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		for _, action := range []string{PromptReport, PromptDump} {
			if err := handleAction(action, logger, env.config, results); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}
		return
	}

	for {
		_, action, err := screenPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of candidates", zap.Int("count", results.Len()))

		if err := handleAction(action, logger, env.config, results); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, results *screening.Results) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReport:
		pretty, _ := json.MarshalIndent(results.ReportByRecommendation(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", results.Len()))
		return nil
	case PromptDetails:
		return showDetails(results)
	case PromptFilters:
		for _, status := range screening.Describe(config.Screening.Filters()) {
			logger.Info("filter",
				zap.String("name", status.Name),
				zap.Bool("enabled", status.Enabled),
				zap.String("reason", status.Reason),
				zap.Any("details", status.Details),
			)
		}
		return nil
	case PromptDump:
		filename, err := results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showDetails(results *screening.Results) error {
	for {
		items := make([]string, 0, results.Len()+1)
		for _, r := range results.Items {
			items = append(items, fmt.Sprintf("%s %s / %.1f / %s", r.Candidate.ID, r.Candidate.Name, r.Match.Score, r.Match.Recommendation))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		id := strings.Split(selected, " ")[0]
		result := results.FindByCandidateID(id)
		if result == nil {
			return fmt.Errorf("there is no such candidate id %s", id)
		}
		if err := printJSON(result); err != nil {
			return err
		}
	}
}

// loadCandidates reads a candidates file, resume files, or both. Candidates
// seen twice are returned as duplicates and screened once.
func loadCandidates(path string, resumes []string) (*screening.Candidates, []string, error) {
	candidates := &screening.Candidates{}
	var duplicates []string

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read candidates %q: %w", path, err)
		}
		var fromFile screening.Candidates
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, nil, fmt.Errorf("parse candidates %q: %w", path, err)
		}
		for i, c := range fromFile.Items {
			if c.ID == "" {
				fromFile.Items[i] = withID(c)
			}
		}
		duplicates = append(duplicates, candidates.Add(fromFile.Items...)...)
	}

	fromFiles, err := screening.CandidatesFromFiles(resumes)
	if err != nil {
		return nil, nil, err
	}
	duplicates = append(duplicates, candidates.Add(fromFiles.Items...)...)

	return candidates, duplicates, nil
}

func withID(c *screening.Candidate) *screening.Candidate {
	fresh := screening.NewCandidate(c.Name, c.ResumeText)
	fresh.Source = c.Source
	fresh.Profile = c.Profile
	return fresh
}
