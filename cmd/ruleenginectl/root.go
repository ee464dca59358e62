package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the rule engine CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ruleenginectl",
		Short: "Business rule DSL engine",
		Long: `ruleenginectl parses, validates, and evaluates rules written in the
business rule DSL: a YAML assembler over a lexer/parser/AST core with
three-scope variable resolution and a multi-pass static validator.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newEvaluateCmd())

	return cmd
}
