package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

var (
	initName        string
	initDescription string
	initForce       bool
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Initialize a new skill or convert an existing skill directory",
	Long: `Scaffold a skill directory with a SKILL.md manifest, an argparse-style
Python entry script, and an output/ directory.

If the directory already contains a SKILL.md without an entry field (a
plain documentation skill), init adds the entry point and keeps the
existing documentation body.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initName, "name", "n", "", "Skill name (defaults to directory name)")
	initCmd.Flags().StringVarP(&initDescription, "description", "d", "", "Skill description")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	skillPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	name := initName
	if name == "" {
		name = filepath.Base(skillPath)
	}
	description := initDescription

	existingBody := ""
	manifestPath := filepath.Join(skillPath, skill.ManifestName)
	if content, err := os.ReadFile(manifestPath); err == nil && !initForce {
		if m, _, perr := skill.ParseManifest(manifestPath, content); perr == nil && m.Entry != "" {
			fmt.Printf("Skill already has entry point: %s\n", m.Entry)
			fmt.Println("Use --force to reinitialize")
			return fmt.Errorf("skill already initialized: %s", skillPath)
		}
		// Keep what an existing documentation-only skill declares.
		var fm struct {
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
		}
		if body, ok := parsePartialFrontmatter(content, &fm); ok {
			if initName == "" && fm.Name != "" {
				name = fm.Name
			}
			if description == "" && fm.Description != "" {
				description = fm.Description
			}
			existingBody = body
			fmt.Printf("Found existing skill: %s\n", name)
			fmt.Println("Adding entry point...")
		}
	}

	if err := os.MkdirAll(skillPath, 0o755); err != nil {
		return err
	}

	if description == "" {
		description = "Description for " + name
	}

	scriptName := strings.NewReplacer("-", "_", " ", "_").Replace(name) + ".py"
	entry := "python3 " + scriptName

	body := existingBody
	if body == "" {
		body = defaultDocumentation(name)
	}
	manifest := fmt.Sprintf("---\nname: %s\ndescription: %s\nentry: %s\n---\n\n%s\n", name, description, entry, body)
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", manifestPath)

	scriptPath := filepath.Join(skillPath, scriptName)
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) || initForce {
		if err := os.WriteFile(scriptPath, []byte(scriptTemplate(name, description)), 0o755); err != nil {
			return err
		}
		fmt.Printf("Created: %s\n", scriptPath)
	} else {
		fmt.Printf("Skipped (exists): %s\n", scriptPath)
	}

	outputDir := filepath.Join(skillPath, "output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, ".gitkeep"), nil, 0o644); err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", outputDir)

	fmt.Println()
	fmt.Printf("Skill initialized: %s\n", name)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s to implement your skill logic\n", scriptPath)
	fmt.Printf("  2. Test with: python3 %s --help\n", scriptName)
	fmt.Printf("  3. Run MCP server: mcp-skill-server serve %s\n", filepath.Dir(skillPath))
	return nil
}

// parsePartialFrontmatter tolerantly extracts fields from a manifest that
// may be missing required fields, returning the markdown body alongside.
func parsePartialFrontmatter(content []byte, out any) (string, bool) {
	text := string(content)
	if !strings.HasPrefix(text, "---") {
		return "", false
	}
	parts := strings.SplitN(text, "---", 3)
	if len(parts) < 3 {
		return "", false
	}
	if err := yaml.Unmarshal([]byte(parts[1]), out); err != nil {
		return "", false
	}
	return strings.TrimSpace(parts[2]), true
}

func defaultDocumentation(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	title := strings.Join(words, " ")
	return fmt.Sprintf(`# %s

## Overview

Describe what this skill does.

## Usage Examples

- "Run %s"
- "Execute %s with --param value"

## Parameters

Document the available parameters here.`, title, name, name)
}

func scriptTemplate(name, description string) string {
	return fmt.Sprintf(`#!/usr/bin/env python3
"""
%s - %s
"""

import argparse


def main():
    parser = argparse.ArgumentParser(description="%s")

    # Add your parameters here
    parser.add_argument(
        "--example",
        type=str,
        default="world",
        help="An example parameter",
    )

    # For skills with subcommands, uncomment:
    # subparsers = parser.add_subparsers(dest="command", help="Available commands")
    # run_parser = subparsers.add_parser("run", help="Run the main operation")
    # run_parser.add_argument("--input", type=str, required=True, help="Input file")

    args = parser.parse_args()

    print(f"Hello, {args.example}!")

    # To report an output file, print:
    # print("OUTPUT_FILE:output/result.csv")


if __name__ == "__main__":
    main()
`, name, description, description)
}
