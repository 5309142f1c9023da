package feed

// Item is one normalized feed entry. Items are rebuilt for every match request.
type Item struct {
	Title   string
	Summary string // plain text, markup stripped
	Link    string
	Image   string // empty when the entry carries no image
	Rating  string // empty when the entry carries no rating
	Source  string // name of the feed source the item came from
}

// Text is the representation handed to the embedder.
func (i Item) Text() string {
	return i.Title + " " + i.Summary
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	MaxItems int  `yaml:"max_items"`
	Timeout  int  `yaml:"timeout"` // seconds
}
