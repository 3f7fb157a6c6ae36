// Package skill defines the skill data model: a directory with a SKILL.md
// manifest and an executable entry command, exposed as a set of callable
// commands whose schema is discovered dynamically from --help output.
package skill
