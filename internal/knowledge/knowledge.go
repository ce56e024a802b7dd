// Package knowledge loads the static datasets the analyzer classifies
// headers against: fingerprinting headers, compatibility slugs, localized
// explanations keyed by rule id, and hardening guides.
//
// All data is embedded in the binary. A loaded Base is read-only and may be
// shared between goroutines.
package knowledge

import (
	"embed"
	"fmt"
	"path"
	"strings"

	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// DefaultLanguage is used when no language is requested or the requested
// one has no catalog.
const DefaultLanguage = "en"

var supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(supported)

// Fingerprint is a header known to reveal implementation details.
type Fingerprint struct {
	Name       string `yaml:"name"`
	Annotation string `yaml:"annotation"`
}

// CompatEntry pairs a security header with its caniuse.com search slug.
type CompatEntry struct {
	Header string `yaml:"header"`
	Slug   string `yaml:"slug"`
}

// Detail is the display payload of a rule.
type Detail struct {
	Title  string `yaml:"title"`
	Detail string `yaml:"detail"`
	Ref    string `yaml:"ref"`
}

// Guide holds hardening snippets for one web server or platform.
type Guide struct {
	Server string   `yaml:"server"`
	Ref    string   `yaml:"ref"`
	Lines  []string `yaml:"lines"`
}

type catalog struct {
	Sections map[string]string `yaml:"sections"`
	Messages map[string]string `yaml:"messages"`
	Rules    map[string]Detail `yaml:"rules"`
}

// Base is the loaded knowledge base for one language.
type Base struct {
	lang         string
	fingerprints []Fingerprint
	byName       map[string]Fingerprint
	compat       []CompatEntry
	guides       []Guide
	catalog      *catalog
	fallback     *catalog
}

// Load reads the embedded datasets and the catalog for lang. An empty lang
// selects DefaultLanguage; a well-formed tag without a catalog falls back to
// English. A malformed tag returns ErrUnsupportedLanguage.
func Load(lang string) (*Base, error) {
	code, err := resolveLanguage(lang)
	if err != nil {
		return nil, err
	}

	base := &Base{lang: code}

	if err := decode("fingerprint.yaml", &base.fingerprints); err != nil {
		return nil, err
	}
	if err := decode("compat.yaml", &base.compat); err != nil {
		return nil, err
	}
	if err := decode("guides.yaml", &base.guides); err != nil {
		return nil, err
	}

	base.fallback = &catalog{}
	if err := decode("details."+DefaultLanguage+".yaml", base.fallback); err != nil {
		return nil, err
	}
	base.catalog = base.fallback
	if code != DefaultLanguage {
		base.catalog = &catalog{}
		if err := decode("details."+code+".yaml", base.catalog); err != nil {
			return nil, err
		}
	}

	base.byName = make(map[string]Fingerprint, len(base.fingerprints))
	for _, fp := range base.fingerprints {
		base.byName[strings.ToLower(fp.Name)] = fp
	}

	return base, nil
}

func resolveLanguage(lang string) (string, error) {
	if strings.TrimSpace(lang) == "" {
		return DefaultLanguage, nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %q", sherrors.ErrUnsupportedLanguage, lang)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLanguage, nil
	}
	b, _ := supported[idx].Base()
	return b.String(), nil
}

func decode(name string, out interface{}) error {
	data, err := dataFS.ReadFile(path.Join("data", name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %v", sherrors.ErrKnowledgeBase, name, err)
	}
	return nil
}

// Language returns the base language code of the loaded catalog.
func (b *Base) Language() string {
	return b.lang
}

// Fingerprints returns the fingerprinting headers in file order.
func (b *Base) Fingerprints() []Fingerprint {
	out := make([]Fingerprint, len(b.fingerprints))
	copy(out, b.fingerprints)
	return out
}

// Fingerprint looks up a fingerprinting header case-insensitively.
func (b *Base) Fingerprint(name string) (Fingerprint, bool) {
	fp, ok := b.byName[strings.ToLower(name)]
	return fp, ok
}

// Compat returns the securable headers in report order.
func (b *Base) Compat() []CompatEntry {
	out := make([]CompatEntry, len(b.compat))
	copy(out, b.compat)
	return out
}

// Guides returns the hardening guides.
func (b *Base) Guides() []Guide {
	out := make([]Guide, len(b.guides))
	copy(out, b.guides)
	return out
}

// Detail returns the display payload of a rule. Fields missing from the
// selected language are taken from English; an unknown id yields the id as
// title so lookups never fail.
func (b *Base) Detail(id string) Detail {
	d := b.catalog.Rules[id]
	if b.catalog != b.fallback {
		en := b.fallback.Rules[id]
		if d.Title == "" {
			d.Title = en.Title
		}
		if d.Detail == "" {
			d.Detail = en.Detail
		}
		if d.Ref == "" {
			d.Ref = en.Ref
		}
	}
	if d.Title == "" {
		d.Title = id
	}
	return d
}

// HasDetail reports whether any catalog knows the rule id.
func (b *Base) HasDetail(id string) bool {
	_, ok := b.fallback.Rules[id]
	return ok
}

// Section returns a localized section heading.
func (b *Base) Section(key string) string {
	return lookup(b.catalog.Sections, b.fallback.Sections, key)
}

// Message returns a localized UI message.
func (b *Base) Message(key string) string {
	return lookup(b.catalog.Messages, b.fallback.Messages, key)
}

func lookup(primary, fallback map[string]string, key string) string {
	if v, ok := primary[key]; ok {
		return v
	}
	if v, ok := fallback[key]; ok {
		return v
	}
	return key
}
