package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// evaluateConfig holds configuration for the evaluate command.
type evaluateConfig struct {
	inputPath string
}

// newEvaluateCmd creates the evaluate subcommand.
func newEvaluateCmd() *cobra.Command {
	cfg := &evaluateConfig{}

	cmd := &cobra.Command{
		Use:   "evaluate <rule.yaml>",
		Short: "Evaluate a rule against a JSON input document",
		Long: `evaluate parses and runs a rule against the input document given by
--input (a JSON object mapped onto the rule's declared inputs), printing
the resulting output data and execution metadata.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&cfg.inputPath, "input", "", "path to a JSON file with input values (default: {})")

	return cmd
}

func runEvaluate(cmd *cobra.Command, cfg *evaluateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	source := string(data)

	input := map[string]interface{}{}
	if cfg.inputPath != "" {
		raw, err := os.ReadFile(cfg.inputPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", cfg.inputPath, err)
		}
		// UseNumber keeps numeric input as json.Number instead of lossy
		// float64, so decimal fidelity (§8) survives the CLI boundary.
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&input); err != nil {
			return fmt.Errorf("failed to parse input JSON: %w", err)
		}
	}

	eng, engCfg, err := buildEngine(cmd)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	evalCtx := context.Background()
	if engCfg.Engine.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(evalCtx, time.Duration(engCfg.Engine.EvaluationTimeout)*time.Millisecond)
		defer cancel()
	}

	result := eng.Evaluate(evalCtx, source, input)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(out))

	if !result.Success {
		return fmt.Errorf("evaluation failed: %s", result.Error)
	}
	return nil
}
