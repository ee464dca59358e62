package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fireflyframework/ruleenginectl/internal/config"
	"github.com/fireflyframework/ruleenginectl/internal/conststore"
	"github.com/fireflyframework/ruleenginectl/internal/rulecache"
	"github.com/fireflyframework/ruleenginectl/internal/rules"
	"github.com/fireflyframework/ruleenginectl/internal/yamlrule"
)

// buildEngine wires an Engine from the resolved config: a disk-backed
// constant store and an in-memory AST cache, both namespaced the way
// rules.Engine expects.
func buildEngine(cmd *cobra.Command) (*rules.Engine, *config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	store, err := conststore.NewDiskStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}

	cache := rulecache.New(time.Duration(cfg.Engine.ASTCacheTTL) * time.Second)

	parse := func(source string) (*rules.RulesDSL, error) {
		return yamlrule.Parse(source)
	}

	eng := rules.NewEngine(parse, cache, store, cfg.Engine.DecimalScale)
	return eng, cfg, nil
}
