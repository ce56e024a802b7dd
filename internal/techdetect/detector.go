// Package techdetect names the technologies behind a response using the
// wappalyzer fingerprint database.
package techdetect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khanhnv2901/hdrscan/internal/headers"
	wappalyzer "github.com/projectdiscovery/wappalyzergo"
)

// wappalyzerClient decouples the detector from the concrete wappalyzer client.
type wappalyzerClient interface {
	Fingerprint(headers map[string][]string, data []byte) map[string]struct{}
}

// Technology is one detected product. Version is empty when wappalyzer
// could not extract it.
type Technology struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (t Technology) String() string {
	if t.Version == "" {
		return t.Name
	}
	return t.Name + " " + t.Version
}

// Detector identifies technologies from response headers and body.
type Detector struct {
	client wappalyzerClient
}

// New loads the embedded fingerprint database.
func New() (*Detector, error) {
	client, err := wappalyzer.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize wappalyzer: %w", err)
	}
	return &Detector{client: client}, nil
}

// Detect returns the technologies sorted by name.
func (d *Detector) Detect(set headers.Set, body []byte) []Technology {
	hdrs := make(map[string][]string, set.Len())
	for name, value := range set.Map() {
		hdrs[strings.ToLower(name)] = []string{value}
	}

	fingerprints := d.client.Fingerprint(hdrs, body)

	techs := make([]Technology, 0, len(fingerprints))
	for fp := range fingerprints {
		name, version, _ := strings.Cut(fp, ":")
		techs = append(techs, Technology{Name: name, Version: version})
	}
	sort.Slice(techs, func(i, j int) bool {
		if techs[i].Name != techs[j].Name {
			return techs[i].Name < techs[j].Name
		}
		return techs[i].Version < techs[j].Version
	})
	return techs
}
