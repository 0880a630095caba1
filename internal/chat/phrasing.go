package chat

import (
	"context"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"helix/internal/logging"
	"helix/internal/tools"
)

// Default follow-up phrasing instructions, keyed by operation family.
// The follow-up model call is tool-blind: its only job is a short
// acknowledgement, without re-introductions or repeating content the user
// already sees.
var defaultPhrasings = map[tools.Family]string{
	tools.FamilySequence: "The outreach sequence was just created and is already displayed to the user. Write one or two short sentences confirming it is ready and inviting feedback. Do not reintroduce yourself and do not repeat the sequence content.",
	tools.FamilyAsset:    "A single recruiting asset (such as an email or letter) was just generated and is already displayed to the user. Write one short sentence confirming it is ready. Do not reintroduce yourself and do not repeat the asset content.",
	tools.FamilySearch:   "A professional search or outreach draft just completed. Summarize the outcome for the user in one or two sentences, referring to the results below. Do not reintroduce yourself.",
	tools.FamilyEdit:     "The outreach sequence was just edited and the updated version is already displayed to the user. Write one short sentence confirming the change. Do not reintroduce yourself and do not repeat the sequence content.",
}

// Phrasings is the enum-keyed lookup table from operation family to
// follow-up instruction. Templates can be overridden from a YAML file and
// hot-reloaded while the process runs.
type Phrasings struct {
	path string

	mu        sync.RWMutex
	templates map[tools.Family]string
}

// NewPhrasings builds the table from defaults, overlaid with the YAML
// file at path if it exists. An empty path means defaults only.
func NewPhrasings(path string) *Phrasings {
	p := &Phrasings{path: path, templates: clonePhrasings(defaultPhrasings)}
	if path != "" {
		if err := p.reload(); err != nil {
			logging.Session("phrasings: could not load %s, using defaults: %v", path, err)
		}
	}
	return p
}

// Get returns the instruction for a family, falling back to the edit
// family for unknown values.
func (p *Phrasings) Get(family tools.Family) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if tmpl, ok := p.templates[family]; ok {
		return tmpl
	}
	return p.templates[tools.FamilyEdit]
}

// Watch reloads the template file whenever it changes on disk, until ctx
// is cancelled. It is a no-op when no path was configured.
func (p *Phrasings) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(p.path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := p.reload(); err != nil {
						logging.Session("phrasings: reload failed: %v", err)
					} else {
						logging.SessionDebug("phrasings: reloaded from %s", p.path)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Session("phrasings: watch error: %v", err)
			}
		}
	}()
	return nil
}

func (p *Phrasings) reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return err
	}

	merged := clonePhrasings(defaultPhrasings)
	for family, tmpl := range overrides {
		if tmpl != "" {
			merged[tools.Family(family)] = tmpl
		}
	}

	p.mu.Lock()
	p.templates = merged
	p.mu.Unlock()
	return nil
}

func clonePhrasings(src map[tools.Family]string) map[tools.Family]string {
	out := make(map[tools.Family]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
