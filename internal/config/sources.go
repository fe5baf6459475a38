package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sources is the optional YAML file listing upstream identifiers. Entries are
// appended to whatever the CSV environment variables already provide.
//
//	rss:
//	  - https://blog.example.com/feed.xml
//	youtube:
//	  - UCxxxxxxxxxxxxxxxxxxxxxx
//	x:
//	  - someuser
type Sources struct {
	RSS     []string `yaml:"rss"`
	YouTube []string `yaml:"youtube"`
	X       []string `yaml:"x"`
}

// LoadSources reads and parses a sources file.
func LoadSources(path string) (Sources, error) {
	var s Sources
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, err
	}
	return s, nil
}

// MergeInto appends the file's entries to c, skipping blanks and duplicates.
func (s Sources) MergeInto(c *CollectorConfig) {
	c.RSSFeeds = mergeUnique(c.RSSFeeds, s.RSS)
	c.YouTubeChannelIDs = mergeUnique(c.YouTubeChannelIDs, s.YouTube)
	c.XUsernames = mergeUnique(c.XUsernames, s.X)
}

func mergeUnique(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
