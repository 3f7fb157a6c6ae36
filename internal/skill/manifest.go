package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the manifest file expected in every skill directory.
const ManifestName = "SKILL.md"

// ConfigurationError reports an invalid or incomplete skill manifest.
// Skills with configuration errors are excluded from the active set.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid skill manifest %s: %s", e.Path, e.Reason)
}

// Manifest is the YAML frontmatter of a SKILL.md file.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Entry       string `yaml:"entry"`
}

// ParseManifest splits a SKILL.md document into YAML frontmatter and
// markdown body. The frontmatter must open the file with a "---" fence and
// declare name, description, and entry.
func ParseManifest(path string, content []byte) (Manifest, string, error) {
	text := string(content)
	if !strings.HasPrefix(text, "---") {
		return Manifest{}, "", &ConfigurationError{Path: path, Reason: "must start with YAML frontmatter (---)"}
	}

	parts := strings.SplitN(text, "---", 3)
	if len(parts) < 3 {
		return Manifest{}, "", &ConfigurationError{Path: path, Reason: "unterminated frontmatter"}
	}

	var m Manifest
	if err := yaml.Unmarshal([]byte(parts[1]), &m); err != nil {
		return Manifest{}, "", &ConfigurationError{Path: path, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}

	for field, value := range map[string]string{
		"name":        m.Name,
		"description": m.Description,
		"entry":       m.Entry,
	} {
		if strings.TrimSpace(value) == "" {
			return Manifest{}, "", &ConfigurationError{Path: path, Reason: "missing required field: " + field}
		}
	}

	return m, strings.TrimSpace(parts[2]), nil
}

// Load reads and parses the SKILL.md at the given path and constructs a
// Skill rooted in the manifest's directory. Command discovery is deferred
// until first use.
func Load(manifestPath string) (*Skill, error) {
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, body, err := ParseManifest(manifestPath, content)
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return nil, fmt.Errorf("resolve skill directory: %w", err)
	}

	return &Skill{
		Name:          m.Name,
		Description:   m.Description,
		EntryCommand:  m.Entry,
		Documentation: body,
		Directory:     dir,
	}, nil
}
