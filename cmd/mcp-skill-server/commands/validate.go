package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcc-ne/mcp-skill-server/internal/discovery"
	"github.com/jcc-ne/mcp-skill-server/internal/security"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

var validateTimeout time.Duration

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a skill is ready for deployment",
	Long: `Check a skill directory: manifest fields, entry command runtime,
script existence, and a live command-discovery dry run.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", discovery.DefaultTimeout, "Discovery dry-run timeout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	skillPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	var errs, warnings []string
	entry := ""

	manifestPath := filepath.Join(skillPath, skill.ManifestName)
	content, readErr := os.ReadFile(manifestPath)
	if readErr != nil {
		errs = append(errs, fmt.Sprintf("%s not found in %s", skill.ManifestName, skillPath))
	} else {
		m, _, perr := skill.ParseManifest(manifestPath, content)
		if perr != nil {
			errs = append(errs, perr.Error())
		} else {
			entry = m.Entry
			if verr := security.ValidateEntryCommand(entry, skillPath); verr != nil {
				errs = append(errs, verr.Error())
			} else if tokens, terr := security.Tokenize(entry); terr == nil && security.ScriptToken(tokens) == "" {
				warnings = append(warnings, "could not identify script file in entry command")
			}
		}
	}

	if _, err := os.Stat(filepath.Join(skillPath, "output")); os.IsNotExist(err) {
		warnings = append(warnings, "no output/ directory (will be created on first run)")
	}

	if entry != "" && len(errs) == 0 {
		fmt.Printf("Discovering commands from: %s\n", entry)
		engine := discovery.NewEngine(discovery.WithTimeout(validateTimeout))
		commands := engine.Discover(context.Background(), entry, skillPath)
		if len(commands) == 0 {
			warnings = append(warnings, "no commands discovered (--help may have failed)")
		} else {
			names := make([]string, 0, len(commands))
			for name := range commands {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Printf("Found %d command(s): [%s]\n", len(commands), strings.Join(names, ", "))
			for _, name := range names {
				c := commands[name]
				required := 0
				for _, p := range c.Parameters {
					if p.Required {
						required++
					}
				}
				fmt.Printf("  - %s: %d params (%d required)\n", name, len(c.Parameters), required)
			}
		}
	}

	printValidationResult(args[0], errs, warnings)
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", args[0])
	}
	return nil
}

func printValidationResult(path string, errs, warnings []string) {
	fmt.Println()
	if len(errs) > 0 {
		fmt.Printf("FAILED: %s\n", path)
		for _, e := range errs {
			fmt.Printf("  ERROR: %s\n", e)
		}
	} else {
		fmt.Printf("PASSED: %s\n", path)
	}
	for _, w := range warnings {
		fmt.Printf("  WARNING: %s\n", w)
	}
	if len(errs) == 0 {
		fmt.Println()
		fmt.Println("Skill is ready for deployment.")
	}
}
