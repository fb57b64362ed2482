package source

import (
	"testing"

	"github.com/ppiankov/truthcore/internal/model"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(&model.SourcesConfig{
		Reputable:  []string{"reuters.com", "bbc.co.uk"},
		Unreliable: []string{"hoax.example", "blogs.reuters.com"},
		DomainMap: map[string]string{
			"satire.example": "unreliable",
			"nasa.gov":       "neutral",
		},
	})

	tests := []struct {
		url      string
		expected model.SourceLabel
		desc     string
	}{
		{"https://www.reuters.com/world/story", model.SourceReputable, "reputable with www"},
		{"https://news.bbc.co.uk/item", model.SourceReputable, "reputable subdomain"},
		{"reuters.com", model.SourceReputable, "bare domain"},
		{"https://REUTERS.com:443/x", model.SourceReputable, "case and port"},
		{"https://hoax.example/post", model.SourceUnreliable, "unreliable domain"},
		{"https://blogs.reuters.com/opinion", model.SourceUnreliable, "unreliable subdomain of reputable"},
		{"https://satire.example", model.SourceUnreliable, "domain map"},
		{"https://nasa.gov/moon", model.SourceNeutral, "domain map overrides TLD rule"},
		{"https://data.census.gov", model.SourceReputable, "gov TLD"},
		{"https://cs.stanford.edu/paper", model.SourceReputable, "edu TLD"},
		{"https://www.ox.ac.uk", model.SourceReputable, "ac.uk"},
		{"https://notreuters.com", model.SourceNeutral, "suffix without dot boundary"},
		{"https://random-blog.example", model.SourceNeutral, "unknown host"},
		{"", model.SourceNeutral, "empty"},
		{"::not a url", model.SourceNeutral, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := classifier.Classify(tt.url); got != tt.expected {
				t.Errorf("Classify(%q) = %s, want %s", tt.url, got, tt.expected)
			}
		})
	}
}

func TestClassifier_DefaultConfig(t *testing.T) {
	classifier := NewClassifier(nil)

	if got := classifier.Classify("https://apnews.com/article/x"); got != model.SourceReputable {
		t.Errorf("expected reputable for default list, got %s", got)
	}
	if got := classifier.Classify("https://unknown.example"); got != model.SourceNeutral {
		t.Errorf("expected neutral, got %s", got)
	}
}
