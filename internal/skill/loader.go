package skill

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jcc-ne/mcp-skill-server/internal/event"
	"github.com/jcc-ne/mcp-skill-server/internal/logging"
)

// Loader discovers skills from */SKILL.md files under a base directory.
type Loader struct {
	basePath string
	bus      *event.Bus

	mu     sync.RWMutex
	skills map[string]*Skill
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBus attaches an event bus; the loader publishes skill.loaded events
// on it.
func WithBus(bus *event.Bus) LoaderOption {
	return func(l *Loader) { l.bus = bus }
}

// NewLoader creates a loader rooted at basePath.
func NewLoader(basePath string, opts ...LoaderOption) *Loader {
	l := &Loader{
		basePath: basePath,
		skills:   make(map[string]*Skill),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BasePath returns the skills directory being scanned.
func (l *Loader) BasePath() string { return l.basePath }

// DiscoverSkills scans <base>/*/SKILL.md and replaces the loaded skill set.
// Manifests that fail to parse are logged and skipped; they never fail the
// scan as a whole.
func (l *Loader) DiscoverSkills() map[string]*Skill {
	log := logging.Component("loader")

	matches, err := doublestar.FilepathGlob(filepath.Join(l.basePath, "*", ManifestName))
	if err != nil {
		log.Warn().Err(err).Str("path", l.basePath).Msg("skills scan failed")
		matches = nil
	}
	sort.Strings(matches)
	log.Info().Int("count", len(matches)).Str("path", l.basePath).Msg("found skill manifests")

	skills := make(map[string]*Skill, len(matches))
	for _, manifestPath := range matches {
		s, err := Load(manifestPath)
		if err != nil {
			log.Error().Err(err).Str("manifest", manifestPath).Msg("failed to load skill")
			continue
		}
		skills[s.ID()] = s
		log.Info().Str("skill", s.Name).Str("dir", s.Directory).Msg("loaded skill")
	}

	l.mu.Lock()
	l.skills = skills
	l.mu.Unlock()

	if l.bus != nil {
		for id, s := range skills {
			l.bus.Publish(event.Event{
				Type: event.SkillLoaded,
				Data: event.SkillLoadedData{SkillID: id, Directory: s.Directory},
			})
		}
	}

	return l.Skills()
}

// Skills returns a snapshot of the loaded skill set.
func (l *Loader) Skills() map[string]*Skill {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]*Skill, len(l.skills))
	for id, s := range l.skills {
		out[id] = s
	}
	return out
}

// Get returns a skill by canonical ID.
func (l *Loader) Get(id string) (*Skill, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.skills[id]
	return s, ok
}

// List returns the loaded skill IDs in sorted order.
func (l *Loader) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.skills))
	for id := range l.skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded skills.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.skills)
}
