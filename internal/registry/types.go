package registry

import (
	"encoding/json"
	"fmt"
)

// Manifest is one version entry of a packument.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dist    *Dist  `json:"dist,omitempty"`
}

// Dist locates a version's tarball.
type Dist struct {
	Tarball   string `json:"tarball,omitempty"`
	Integrity string `json:"integrity,omitempty"`
}

// Packument is a package's full metadata document.
type Packument struct {
	Name     string              `json:"name"`
	DistTags map[string]string   `json:"dist-tags"`
	Versions map[string]Manifest `json:"versions"`
	Time     map[string]string   `json:"time,omitempty"`
}

// Latest returns the version tagged latest.
func (p *Packument) Latest() (string, error) {
	latest := p.DistTags["latest"]
	if latest == "" {
		return "", fmt.Errorf("packument for %s has no latest dist-tag", p.Name)
	}
	return latest, nil
}

// Release is one entry of the node release index. LTS holds the release
// line's codename, or "" when the release is not LTS.
type Release struct {
	Version string
	LTS     string
}

// IsLTS reports whether the release belongs to an LTS line.
func (r Release) IsLTS() bool {
	return r.LTS != ""
}

type releaseJSON struct {
	Version string          `json:"version"`
	LTS     json.RawMessage `json:"lts"`
}

// UnmarshalJSON accepts lts as either false or a codename string.
func (r *Release) UnmarshalJSON(data []byte) error {
	var raw releaseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Version = raw.Version
	r.LTS = ""
	if len(raw.LTS) == 0 || string(raw.LTS) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(raw.LTS, &name); err == nil {
		r.LTS = name
		return nil
	}
	var flag bool
	if err := json.Unmarshal(raw.LTS, &flag); err != nil {
		return fmt.Errorf("release %s: lts must be false or a string, got %s", raw.Version, raw.LTS)
	}
	return nil
}

// MarshalJSON writes lts back as false or the codename.
func (r Release) MarshalJSON() ([]byte, error) {
	var lts any = false
	if r.LTS != "" {
		lts = r.LTS
	}
	return json.Marshal(struct {
		Version string `json:"version"`
		LTS     any    `json:"lts"`
	}{r.Version, lts})
}
