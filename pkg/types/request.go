package types

// AssignRequest defines the structure of an assign request file (YAML) or MCP
// tool call (JSON).
type AssignRequest struct {
	Branch   string   `yaml:"branch" json:"branch"`
	Messages []string `yaml:"messages" json:"messages"`
	DryRun   bool     `yaml:"dry_run" json:"dry_run"`
}

// ReconcileRequest identifies the release to check.
type ReconcileRequest struct {
	Version string `yaml:"version" json:"version"`
	Commit  string `yaml:"commit" json:"commit"`
	Base    string `yaml:"base,omitempty" json:"base,omitempty"`
	File    bool   `yaml:"file" json:"file"`
	DryRun  bool   `yaml:"dry_run" json:"dry_run"`
}
