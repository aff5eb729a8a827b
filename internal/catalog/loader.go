package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/event-wizard/internal/models"
)

// Catalog file names inside the catalog directory
const (
	CategoriesFile      = "categories.yaml"
	ProhibitedItemsFile = "prohibited_items.yaml"
	StepsFile           = "steps.yaml"
)

// Loader manages loading and caching of the reference data offered by the
// wizard: event categories, prohibited items and step titles
type Loader struct {
	mu sync.RWMutex

	categories      map[string]*models.Category
	categoryOrder   []string
	prohibitedItems map[string]*models.ProhibitedItem
	itemOrder       []string
	steps           map[models.Step]*models.StepInfo
}

// categoriesFile is the on-disk layout of categories.yaml
type categoriesFile struct {
	Categories []models.Category `yaml:"categories"`
}

// prohibitedItemsFile is the on-disk layout of prohibited_items.yaml
type prohibitedItemsFile struct {
	Items []models.ProhibitedItem `yaml:"items"`
}

// stepsFile is the on-disk layout of steps.yaml
type stepsFile struct {
	Steps []models.StepInfo `yaml:"steps"`
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{
		categories:      make(map[string]*models.Category),
		prohibitedItems: make(map[string]*models.ProhibitedItem),
		steps:           make(map[models.Step]*models.StepInfo),
	}
}

// LoadFromDir loads every catalog file found in dir. Missing files are
// skipped with a warning; malformed files are an error.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)

	loaders := []struct {
		name string
		load func(path string) error
	}{
		{CategoriesFile, l.LoadCategories},
		{ProhibitedItemsFile, l.LoadProhibitedItems},
		{StepsFile, l.LoadSteps},
	}

	for _, f := range loaders {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Warn("catalog file not found", "file", path)
			continue
		}
		if err := f.load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", f.name, err)
		}
	}

	slog.Info("catalog loaded",
		"categories", len(l.Categories()),
		"prohibited_items", len(l.ProhibitedItems()),
		"steps", len(l.Steps()),
	)
	return nil
}

// LoadCategories loads event categories from a YAML file
func (l *Loader) LoadCategories(path string) error {
	var f categoriesFile
	if err := readYAML(path, &f); err != nil {
		return err
	}

	categories := make(map[string]*models.Category, len(f.Categories))
	order := make([]string, 0, len(f.Categories))
	for i := range f.Categories {
		c := f.Categories[i]
		if c.ID == "" {
			return fmt.Errorf("category %d: id is required", i)
		}
		if _, dup := categories[c.ID]; dup {
			return fmt.Errorf("duplicate category %q", c.ID)
		}
		if c.Name == "" {
			c.Name = c.ID
		}
		categories[c.ID] = &c
		order = append(order, c.ID)
	}

	l.mu.Lock()
	l.categories = categories
	l.categoryOrder = order
	l.mu.Unlock()
	return nil
}

// LoadProhibitedItems loads the prohibited items list from a YAML file
func (l *Loader) LoadProhibitedItems(path string) error {
	var f prohibitedItemsFile
	if err := readYAML(path, &f); err != nil {
		return err
	}

	items := make(map[string]*models.ProhibitedItem, len(f.Items))
	order := make([]string, 0, len(f.Items))
	for i := range f.Items {
		item := f.Items[i]
		if item.ID == "" {
			return fmt.Errorf("prohibited item %d: id is required", i)
		}
		if _, dup := items[item.ID]; dup {
			return fmt.Errorf("duplicate prohibited item %q", item.ID)
		}
		if item.Name == "" {
			item.Name = item.ID
		}
		items[item.ID] = &item
		order = append(order, item.ID)
	}

	l.mu.Lock()
	l.prohibitedItems = items
	l.itemOrder = order
	l.mu.Unlock()
	return nil
}

// LoadSteps loads step display metadata from a YAML file
func (l *Loader) LoadSteps(path string) error {
	var f stepsFile
	if err := readYAML(path, &f); err != nil {
		return err
	}

	steps := make(map[models.Step]*models.StepInfo, len(f.Steps))
	for i := range f.Steps {
		info := f.Steps[i]
		steps[info.Step] = &info
	}

	l.mu.Lock()
	l.steps = steps
	l.mu.Unlock()
	return nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Categories returns all categories in file order
func (l *Loader) Categories() []*models.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Category, 0, len(l.categoryOrder))
	for _, id := range l.categoryOrder {
		result = append(result, l.categories[id])
	}
	return result
}

// HasCategory reports whether id is a known category
func (l *Loader) HasCategory(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.categories[id]
	return ok
}

// ProhibitedItems returns all prohibited items in file order
func (l *Loader) ProhibitedItems() []*models.ProhibitedItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.ProhibitedItem, 0, len(l.itemOrder))
	for _, id := range l.itemOrder {
		result = append(result, l.prohibitedItems[id])
	}
	return result
}

// HasProhibitedItem reports whether id is a known prohibited item
func (l *Loader) HasProhibitedItem(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.prohibitedItems[id]
	return ok
}

// StepInfo returns display metadata for step. Steps missing from the file
// fall back to the step identifier as title.
func (l *Loader) StepInfo(step models.Step) *models.StepInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if info, ok := l.steps[step]; ok {
		return info
	}
	return &models.StepInfo{Step: step, Title: string(step)}
}

// Steps returns the loaded step metadata
func (l *Loader) Steps() []*models.StepInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.StepInfo, 0, len(l.steps))
	for _, info := range l.steps {
		result = append(result, info)
	}
	return result
}
