package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"loom/internal/logging"
)

//go:embed defaults/*.yaml
var defaultCorpus embed.FS

// templateFile is the on-disk YAML shape of a template corpus.
type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

// templateEntry declares either a plain template (template +
// input_variables) or a chat template (messages). Declaring both is an
// error.
type templateEntry struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Template       string         `yaml:"template"`
	InputVariables []string       `yaml:"input_variables"`
	Messages       []messageEntry `yaml:"messages"`
}

type messageEntry struct {
	Role     string `yaml:"role"`
	Template string `yaml:"template"`
}

// Library holds named templates loaded from the embedded default corpus
// and, optionally, a user templates directory. User templates with the
// same name shadow the defaults.
type Library struct {
	mu    sync.RWMutex
	dir   string
	plain map[string]*Template
	chat  map[string]*ChatTemplate
	descs map[string]string

	logger *zap.Logger
}

// NewLibrary loads the embedded default corpus and then the given
// directory (may be empty). Every *.yaml/*.yml file in the directory is
// a corpus file.
func NewLibrary(dir string) (*Library, error) {
	lib := &Library{
		dir:    dir,
		plain:  make(map[string]*Template),
		chat:   make(map[string]*ChatTemplate),
		descs:  make(map[string]string),
		logger: logging.For(logging.CategoryPrompt),
	}

	if err := lib.loadEmbedded(); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := lib.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func (l *Library) loadEmbedded() error {
	return fs.WalkDir(defaultCorpus, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := defaultCorpus.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded corpus %s: %w", path, err)
		}
		return l.loadYAML(data, path)
	})
}

func (l *Library) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("templates dir absent, using defaults only", zap.String("dir", dir))
			return nil
		}
		return fmt.Errorf("read templates dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read corpus file %s: %w", path, err)
		}
		if err := l.loadYAML(data, path); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) loadYAML(data []byte, source string) error {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse corpus %s: %w", source, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, entry := range file.Templates {
		if entry.Name == "" {
			return fmt.Errorf("corpus %s: template without a name", source)
		}
		if entry.Template != "" && len(entry.Messages) > 0 {
			return fmt.Errorf("corpus %s: template %q declares both template and messages", source, entry.Name)
		}

		switch {
		case len(entry.Messages) > 0:
			segments := make([]Segment, 0, len(entry.Messages))
			for _, m := range entry.Messages {
				segments = append(segments, Segment{Role: Role(m.Role), Text: m.Template})
			}
			ct, err := NewChatTemplate(segments...)
			if err != nil {
				return fmt.Errorf("corpus %s: template %q: %w", source, entry.Name, err)
			}
			ct.Name = entry.Name
			delete(l.plain, entry.Name)
			l.chat[entry.Name] = ct

		case entry.Template != "":
			t := &Template{
				Name:           entry.Name,
				Text:           entry.Template,
				InputVariables: entry.InputVariables,
			}
			if len(t.InputVariables) == 0 {
				t.InputVariables = t.Placeholders()
			}
			if err := t.Validate(); err != nil {
				return fmt.Errorf("corpus %s: %w", source, err)
			}
			delete(l.chat, entry.Name)
			l.plain[entry.Name] = t

		default:
			return fmt.Errorf("corpus %s: template %q has no body", source, entry.Name)
		}
		l.descs[entry.Name] = entry.Description
	}

	l.logger.Debug("loaded template corpus",
		zap.String("source", source),
		zap.Int("templates", len(file.Templates)))
	return nil
}

// Reload re-reads the defaults and the templates directory. The swap is
// all or nothing: a corpus file that fails to parse leaves the currently
// loaded templates in place.
func (l *Library) Reload() error {
	l.mu.RLock()
	dir := l.dir
	l.mu.RUnlock()

	staged := &Library{
		dir:    dir,
		plain:  make(map[string]*Template),
		chat:   make(map[string]*ChatTemplate),
		descs:  make(map[string]string),
		logger: l.logger,
	}
	if err := staged.loadEmbedded(); err != nil {
		return err
	}
	if dir != "" {
		if err := staged.loadDir(dir); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.plain = staged.plain
	l.chat = staged.chat
	l.descs = staged.descs
	l.mu.Unlock()
	return nil
}

// Get returns a plain template by name.
func (l *Library) Get(name string) (*Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.plain[name]
	return t, ok
}

// GetChat returns a chat template by name.
func (l *Library) GetChat(name string) (*ChatTemplate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ct, ok := l.chat[name]
	return ct, ok
}

// Description returns the description recorded for a template.
func (l *Library) Description(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.descs[name]
}

// Names lists all template names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.plain)+len(l.chat))
	for n := range l.plain {
		names = append(names, n)
	}
	for n := range l.chat {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
