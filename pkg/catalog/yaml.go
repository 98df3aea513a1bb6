package catalog

// yamlPattern is the on-disk form of a pattern definition.
type yamlPattern struct {
	Name             string   `yaml:"name"`
	ID               string   `yaml:"id"`
	Pattern          string   `yaml:"pattern"`
	Flags            string   `yaml:"flags,omitempty"`
	Engine           string   `yaml:"engine,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
}

// yamlCatalogFile represents the top-level structure of a catalog YAML file.
type yamlCatalogFile struct {
	Patterns []yamlPattern `yaml:"patterns"`
}
