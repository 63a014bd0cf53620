package types

// Milestone is a versioned release bucket on the repository.
type Milestone struct {
	Number  int    `yaml:"number" json:"number"`
	Title   string `yaml:"title" json:"title"`
	State   string `yaml:"state,omitempty" json:"state,omitempty"`
	HTMLURL string `yaml:"html_url,omitempty" json:"html_url,omitempty"`
}

// Issue is a snapshot of an issue or pull request as returned by GitHub.
type Issue struct {
	Number      int        `yaml:"number" json:"number"`
	Title       string     `yaml:"title" json:"title"`
	Body        string     `yaml:"body,omitempty" json:"body,omitempty"`
	Labels      []string   `yaml:"labels,omitempty" json:"labels,omitempty"`
	Milestone   *Milestone `yaml:"milestone,omitempty" json:"milestone,omitempty"`
	PullRequest bool       `yaml:"pull_request" json:"pull_request"`
	NodeID      string     `yaml:"node_id,omitempty" json:"node_id,omitempty"`
	HTMLURL     string     `yaml:"html_url,omitempty" json:"html_url,omitempty"`
}

// HasLabel reports whether the issue carries a label with exactly this name.
func (i *Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// Commit is a commit in a compared range.
type Commit struct {
	SHA     string `yaml:"sha" json:"sha"`
	Message string `yaml:"message" json:"message"`
}

// ProjectItem is an issue filed onto the release tracking board.
type ProjectItem struct {
	IssueNumber int    `yaml:"issue_number" json:"issue_number"`
	Comment     string `yaml:"comment" json:"comment"`
	Version     string `yaml:"version" json:"version"`
	ItemID      string `yaml:"item_id,omitempty" json:"item_id,omitempty"`
}
