package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default_lexicon.toml
var defaultLexiconTOML string

// Category is an interest category and the keywords that signal it.
type Category struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// TraitRule fires when at least MinHits records match any keyword.
type TraitRule struct {
	Name     string   `toml:"name"`
	MinHits  int      `toml:"min_hits"`
	Keywords []string `toml:"keywords"`
}

// Phrases holds lead-in phrases for sentence extraction and question detection.
type Phrases struct {
	Goals        []string `toml:"goals"`
	Frustrations []string `toml:"frustrations"`
	Questions    []string `toml:"questions"`
}

// Rules holds thresholds for the aggregate trait rules.
type Rules struct {
	ConversationalRatio float64 `toml:"conversational_ratio"`
	QuestionMinRecords  int     `toml:"question_min_records"`
}

// Lexicon is the full set of dictionaries the analyzer matches against.
// Load it once and pass it to Analyze; nothing mutates it afterwards.
type Lexicon struct {
	Interests []Category  `toml:"interest"`
	Traits    []TraitRule `toml:"trait"`
	Phrases   Phrases     `toml:"phrases"`
	Rules     Rules       `toml:"rules"`
}

// DefaultLexicon returns the built-in dictionaries.
func DefaultLexicon() (Lexicon, error) {
	return ParseLexicon(defaultLexiconTOML)
}

// LoadLexicon reads dictionaries from a TOML file.
func LoadLexicon(path string) (Lexicon, error) {
	var lex Lexicon
	md, err := toml.DecodeFile(path, &lex)
	if err != nil {
		return Lexicon{}, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return finishLexicon(lex, md)
}

// ParseLexicon decodes dictionaries from TOML text.
func ParseLexicon(data string) (Lexicon, error) {
	var lex Lexicon
	md, err := toml.Decode(data, &lex)
	if err != nil {
		return Lexicon{}, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	return finishLexicon(lex, md)
}

func finishLexicon(lex Lexicon, md toml.MetaData) (Lexicon, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Lexicon{}, fmt.Errorf("unknown lexicon keys: %s", strings.Join(keys, ", "))
	}
	if err := lex.normalize(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

// normalize folds keywords to lowercase, drops blanks and duplicates, and
// fills rule defaults.
func (l *Lexicon) normalize() error {
	seen := make(map[string]bool)
	for i := range l.Interests {
		c := &l.Interests[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return errors.New("interest category without a name")
		}
		if seen["interest:"+c.Name] {
			return fmt.Errorf("duplicate interest category %q", c.Name)
		}
		seen["interest:"+c.Name] = true
		c.Keywords = cleanKeywords(c.Keywords)
	}

	for i := range l.Traits {
		r := &l.Traits[i]
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return errors.New("trait rule without a name")
		}
		if r.Name == TraitConversational || r.Name == TraitCurious {
			return fmt.Errorf("trait name %q is reserved", r.Name)
		}
		if seen["trait:"+r.Name] {
			return fmt.Errorf("duplicate trait %q", r.Name)
		}
		seen["trait:"+r.Name] = true
		if r.MinHits <= 0 {
			r.MinHits = 1
		}
		r.Keywords = cleanKeywords(r.Keywords)
	}

	l.Phrases.Goals = cleanKeywords(l.Phrases.Goals)
	l.Phrases.Frustrations = cleanKeywords(l.Phrases.Frustrations)
	l.Phrases.Questions = cleanKeywords(l.Phrases.Questions)

	if l.Rules.ConversationalRatio <= 0 {
		l.Rules.ConversationalRatio = 2.0
	}
	if l.Rules.QuestionMinRecords <= 0 {
		l.Rules.QuestionMinRecords = 2
	}
	return nil
}

func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = foldASCII(strings.Join(strings.Fields(kw), " "))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
