package prompts

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Template is one versioned, per-domain synthesis prompt: the system-side
// instructions handed to the model when extracting claims.
type Template struct {
	Domain  string `yaml:"domain"`
	Version int    `yaml:"version"`
	Text    string `yaml:"text"`
	Active  bool   `yaml:"active"`
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// DefaultSynthesisPrompt is used when no per-domain template is configured.
const DefaultSynthesisPrompt = `You are a research analyst distilling text into atomic knowledge claims.
Extract every distinct, self-contained claim from the provided research text.
Each claim needs a short unique title, a one-sentence summary, a precise
definition, a claim type, a confidence between 0 and 1, the evidence cited in
the text, and any relationships to other claims you extract (by their titles).
Do not invent claims that are not supported by the text. If the text contains
no extractable claims, return an empty list.`

// Library holds the loaded templates, keyed by domain. Safe for concurrent
// readers; templates never change after Load.
type Library struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewLibrary() *Library {
	return &Library{templates: map[string]Template{}}
}

// LoadFile reads templates from a YAML file. Inactive templates and
// templates superseded by a higher version for the same domain are skipped.
func (l *Library) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("prompts: read %s: %w", path, err)
	}
	var file templateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("prompts: parse %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range file.Templates {
		t.Domain = strings.TrimSpace(strings.ToLower(t.Domain))
		if t.Domain == "" || !t.Active || strings.TrimSpace(t.Text) == "" {
			continue
		}
		if existing, ok := l.templates[t.Domain]; ok && existing.Version >= t.Version {
			continue
		}
		l.templates[t.Domain] = t
	}
	return nil
}

// ForDomain returns the active template text for a domain, falling back to
// the built-in default.
func (l *Library) ForDomain(domain string) string {
	if l != nil {
		l.mu.RLock()
		t, ok := l.templates[strings.TrimSpace(strings.ToLower(domain))]
		l.mu.RUnlock()
		if ok {
			return t.Text
		}
	}
	return DefaultSynthesisPrompt
}
