package player

import "github.com/work6189/PoPlayers/pkg/dom"

// Candidate is one alternative of a multi source load. The browser picks the
// first one it can play.
type Candidate struct {
	URL      string `json:"url" toml:"url"`
	MimeType string `json:"type,omitempty" toml:"type"`
}

// Source is what Load installs: a single URL or an ordered candidate list.
type Source struct {
	url        string
	candidates []Candidate
}

func URL(u string) Source {
	return Source{url: u}
}

func Candidates(candidates ...Candidate) Source {
	return Source{candidates: candidates}
}

func (s Source) IsZero() bool {
	return s.url == "" && len(s.candidates) == 0
}

func (s Source) mediaSources() []dom.MediaSource {
	result := make([]dom.MediaSource, 0, len(s.candidates))
	for _, c := range s.candidates {
		result = append(result, dom.MediaSource{URL: c.URL, MimeType: c.MimeType})
	}
	return result
}
