package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the closed, ordered set of filler tokens tracked per
// session. It is fixed at process start; sessions created afterwards all
// share the same entries.
type Vocabulary struct {
	words []string
	set   map[string]struct{}
}

// vocabularyFile is the on-disk YAML shape of a vocabulary definition.
type vocabularyFile struct {
	Language string   `yaml:"language"`
	Fillers  []string `yaml:"fillers"`
}

// DefaultVocabulary returns the built-in Korean hesitation vocabulary.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary([]string{
		"음", "어", "어어", "아", "아아",
		"흠", "흠흠", "하", "그", "그그",
	})
}

// NewVocabulary creates a vocabulary from an ordered word list.
// Duplicates are dropped, first occurrence wins.
func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{set: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if _, dup := v.set[w]; dup || w == "" {
			continue
		}
		v.set[w] = struct{}{}
		v.words = append(v.words, w)
	}
	return v
}

// LoadVocabulary reads a vocabulary definition from a YAML file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	if len(file.Fillers) == 0 {
		return nil, fmt.Errorf("vocabulary file %s defines no fillers", path)
	}

	return NewVocabulary(file.Fillers), nil
}

// Words returns the vocabulary entries in definition order.
func (v *Vocabulary) Words() []string {
	return append([]string(nil), v.words...)
}

// Contains reports whether a normalized token is a vocabulary entry.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.set[token]
	return ok
}

// Len returns the number of vocabulary entries.
func (v *Vocabulary) Len() int {
	return len(v.words)
}
