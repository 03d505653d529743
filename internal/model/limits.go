package model

// CategoryLimit describes truncation for one tracked category.
type CategoryLimit struct {
	Name    string `yaml:"name"    json:"name"`
	Showing int    `yaml:"showing" json:"showing"`
	Total   int    `yaml:"total"   json:"total"`
	Limited bool   `yaml:"limited" json:"limited"`
	Line    string `yaml:"line"    json:"line"`
}

// LimitsInfo is a read-only projection over every LimitedData in a run.
type LimitsInfo struct {
	AnyLimited        bool            `yaml:"anyLimited"        json:"anyLimited"`
	LimitedCategories []string        `yaml:"limitedCategories" json:"limitedCategories"`
	Categories        []CategoryLimit `yaml:"categories"        json:"categories"`
	Summary           string          `yaml:"summary"           json:"summary"`
}
