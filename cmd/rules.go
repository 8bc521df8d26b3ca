package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/shelf/internal/shared"
	"github.com/urfave/cli/v3"
)

// defaultRulesPath is used when no rules_path is configured and the user
// edits the rule set for the first time.
const defaultRulesPath = "rules.toml"

// RulesShow prints the active rule set as editable TOML.
func (r *Runner) RulesShow(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	store, err := r.ruleStore()
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(store.Rules(), true)
	}

	r.writePlainHeader("Categorization Rules")
	r.writePlain("%s", store.EncodeRules())
	r.writePlain("\nName template: %s\n", store.NameTemplate())
	r.writePlain("Description template: %s\n", store.DescriptionTemplate())
	if store.Public() {
		r.writePlain("Visibility: Public\n")
	} else {
		r.writePlain("Visibility: Private\n")
	}

	if path := r.config.Organizer.RulesPath; path != "" {
		r.writePlain("\nRules file: %s\n", path)
	} else {
		r.writePlain("\nUsing built-in rules. Edit with 'shelf rules edit --file'.\n")
	}

	return nil
}

// RulesEdit replaces the active rule set from a TOML file. The replacement is
// atomic: a malformed file leaves the stored rules untouched.
func (r *Runner) RulesEdit(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	filePath := cmd.String("file")

	store, err := r.ruleStore()
	if err != nil {
		return err
	}

	text, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}

	if err := store.ValidateAndReplace(string(text)); err != nil {
		return fmt.Errorf("rules file rejected: %w", err)
	}

	rulesPath := r.config.Organizer.RulesPath
	if rulesPath == "" {
		rulesPath = defaultRulesPath
		r.config.Organizer.RulesPath = rulesPath
		if err := shared.SaveConfig(configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	if err := os.WriteFile(rulesPath, []byte(store.EncodeRules()), 0644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}

	r.logger.Info("rule set replaced", "categories", len(store.Rules()), "path", rulesPath)

	r.writePlain("✓ Rule set updated (%d categories)\n", len(store.Rules()))
	r.writePlain("✓ Saved to %s\n", rulesPath)

	return nil
}
