package template

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrMappingNotFound  = errors.New("field mapping not found")
	ErrInvalidTemplate  = errors.New("invalid template")
)

const defaultRefreshInterval = 3600

var (
	validName       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	validXMLElement = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
)

// Store keeps feed templates loaded from a directory of YAML files, one file
// per template. Mutations are written back to disk.
type Store struct {
	templatesDir string
	cache        map[string]*Template
	mu           sync.RWMutex
}

func NewStore(templatesDir string) *Store {
	return &Store{
		templatesDir: templatesDir,
		cache:        make(map[string]*Template),
	}
}

func (s *Store) Run() error {
	if _, err := os.Stat(s.templatesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(s.templatesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		tmpl, err := s.Load(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Template loaded", "template", name, "type", tmpl.Type, "mappings", len(tmpl.Mappings), "enabled", tmpl.Settings.Enabled)
	}

	return nil
}

// Load (re)reads a single template file into the cache.
func (s *Store) Load(name string) (*Template, error) {
	file := s.filePath(name)
	tmpl, err := s.parse(file)
	if err != nil {
		return nil, err
	}

	tmpl.Name = name

	if err := Validate(tmpl); err != nil {
		return nil, fmt.Errorf("invalid template %s: %w", file, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[name] = tmpl

	return tmpl, nil
}

func (s *Store) Get(name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.cache[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

// List returns every template ordered by name.
func (s *Store) List() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Template, 0, len(s.cache))
	for _, tmpl := range s.cache {
		list = append(list, tmpl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func (s *Store) Active() []*Template {
	var active []*Template
	for _, tmpl := range s.List() {
		if tmpl.Settings.Enabled {
			active = append(active, tmpl)
		}
	}
	return active
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Save creates or replaces a template and persists it.
func (s *Store) Save(tmpl *Template) (*Template, error) {
	tmpl = tmpl.Clone()
	applyDefaults(tmpl)

	if err := Validate(tmpl); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(tmpl); err != nil {
		return nil, err
	}
	s.cache[tmpl.Name] = tmpl

	return tmpl, nil
}

func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[name]; !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	if err := os.Remove(s.filePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove template file: %w", err)
	}
	delete(s.cache, name)

	return nil
}

// AddMapping appends a mapping to the named template and returns it with its
// assigned id.
func (s *Store) AddMapping(name string, mapping FieldMapping) (FieldMapping, error) {
	var added FieldMapping
	err := s.modify(name, func(tmpl *Template) error {
		mapping.ID = uuid.NewString()
		tmpl.Mappings = append(tmpl.Mappings, mapping)
		added = mapping
		return nil
	})
	return added, err
}

func (s *Store) UpdateMapping(name, id string, mapping FieldMapping) (FieldMapping, error) {
	err := s.modify(name, func(tmpl *Template) error {
		for i := range tmpl.Mappings {
			if tmpl.Mappings[i].ID == id {
				mapping.ID = id
				tmpl.Mappings[i] = mapping
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrMappingNotFound, id)
	})
	return mapping, err
}

func (s *Store) DeleteMapping(name, id string) error {
	return s.modify(name, func(tmpl *Template) error {
		for i := range tmpl.Mappings {
			if tmpl.Mappings[i].ID == id {
				tmpl.Mappings = append(tmpl.Mappings[:i], tmpl.Mappings[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrMappingNotFound, id)
	})
}

// AddPredefinedGoogleFields appends an unmapped entry for every catalogue
// attribute the template does not target yet. It returns how many were added.
func (s *Store) AddPredefinedGoogleFields(name string) (int, error) {
	added := 0
	err := s.modify(name, func(tmpl *Template) error {
		for _, field := range googleShoppingFields {
			if tmpl.HasTarget(field.Field) {
				continue
			}
			tmpl.Mappings = append(tmpl.Mappings, FieldMapping{
				ID:          uuid.NewString(),
				TargetField: field.Field,
				IsRequired:  field.Required,
				Description: field.Description,
				Example:     field.Example,
			})
			added++
		}
		return nil
	})
	return added, err
}

func (s *Store) modify(name string, fn func(*Template) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.cache[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	tmpl := current.Clone()
	if err := fn(tmpl); err != nil {
		return err
	}
	if err := Validate(tmpl); err != nil {
		return err
	}
	if err := s.write(tmpl); err != nil {
		return err
	}
	s.cache[name] = tmpl

	return nil
}

func (s *Store) parse(file string) (*Template, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&tmpl)

	return &tmpl, nil
}

func (s *Store) write(tmpl *Template) error {
	data, err := yaml.Marshal(tmpl)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}

	if err := os.MkdirAll(s.templatesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create templates dir: %w", err)
	}

	target := s.filePath(tmpl.Name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace template: %w", err)
	}

	return nil
}

func (s *Store) filePath(name string) string {
	return filepath.Join(s.templatesDir, name+".yml")
}

func applyDefaults(tmpl *Template) {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	if tmpl.Settings.RefreshInterval == 0 {
		tmpl.Settings.RefreshInterval = defaultRefreshInterval
	}
	for i := range tmpl.Mappings {
		if tmpl.Mappings[i].ID == "" {
			tmpl.Mappings[i].ID = uuid.NewString()
		}
	}
}

// Validate checks that a template can be fed to the generator.
func Validate(tmpl *Template) error {
	if tmpl == nil {
		return fmt.Errorf("%w: template is nil", ErrInvalidTemplate)
	}

	if !validName.MatchString(tmpl.Name) {
		return fmt.Errorf("%w: invalid template name %q", ErrInvalidTemplate, tmpl.Name)
	}

	if !tmpl.Type.Valid() {
		return fmt.Errorf("%w: unsupported feed type %q", ErrInvalidTemplate, tmpl.Type)
	}

	if tmpl.Settings.RefreshInterval < 0 {
		return fmt.Errorf("%w: refresh interval must be non-negative", ErrInvalidTemplate)
	}

	for i, m := range tmpl.Mappings {
		if m.TargetField == "" {
			return fmt.Errorf("%w: mapping at index %d has no target field", ErrInvalidTemplate, i)
		}
		if tmpl.Type == FeedTypeGoogle && !validXMLElement.MatchString(m.TargetField) {
			return fmt.Errorf("%w: mapping at index %d: target field %q is not a valid XML element name", ErrInvalidTemplate, i, m.TargetField)
		}
	}

	return nil
}
