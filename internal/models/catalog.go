package models

// Category is an event category offered in the basic details step
type Category struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// ProhibitedItem is an item attendees may not bring
type ProhibitedItem struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Icon string `yaml:"icon" json:"icon,omitempty"`
}

// StepInfo is display metadata for a wizard step
type StepInfo struct {
	Step        Step   `yaml:"step" json:"step"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description,omitempty"`
}
