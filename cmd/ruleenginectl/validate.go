package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fireflyframework/ruleenginectl/internal/config"
	"github.com/fireflyframework/ruleenginectl/internal/validator"
	"github.com/fireflyframework/ruleenginectl/internal/yamlrule"
)

// validateConfig holds configuration for the validate command.
type validateConfig struct {
	jsonOutput bool
}

// newValidateCmd creates the validate subcommand.
func newValidateCmd() *cobra.Command {
	cfg := &validateConfig{}

	cmd := &cobra.Command{
		Use:   "validate <rule.yaml>",
		Short: "Run the multi-pass static validator over a rule file",
		Long: `validate parses a rule file and runs the syntax, naming, dependency,
logic, performance, and best-practices passes, printing a quality report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, cfg, args[0])
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output the report as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, cfg *validateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	source := string(data)

	dsl, parseErr := yamlrule.Parse(source)
	report := validator.Validate(source, dsl, parseErr)

	if cfg.jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(out))
	} else {
		printReportTable(cmd, report)
	}

	cfgLoaded, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if report.Status == validator.StatusCriticalError || report.Status == validator.StatusError {
		return fmt.Errorf("validation failed with %s issues", report.Status)
	}
	if report.Status == validator.StatusWarning && cfgLoaded.Validator.FailOnWarning {
		return fmt.Errorf("validation failed: warnings are fatal under the configured strictness")
	}
	return nil
}

func printReportTable(cmd *cobra.Command, report *validator.Report) {
	cmd.Printf("status: %s\n", report.Status)
	cmd.Printf("quality score: %d/100\n", report.QualityScore)
	if len(report.Issues) == 0 {
		cmd.Println("no issues found")
		return
	}
	cmd.Println("issues:")
	for _, issue := range report.Issues {
		cmd.Printf("  [%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
		if issue.Suggestion != "" {
			cmd.Printf("      suggestion: %s\n", issue.Suggestion)
		}
	}
}
