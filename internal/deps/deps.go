// Package deps summarizes the dependency manifests found at a project root.
package deps

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	burntsushi "github.com/BurntSushi/toml"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// Ecosystem names
const (
	EcosystemGo     = "go"
	EcosystemNPM    = "npm"
	EcosystemCargo  = "cargo"
	EcosystemPython = "python"
)

// Manifest is the dependency count of one manifest file.
type Manifest struct {
	Path      string `json:"path"`
	Ecosystem string `json:"ecosystem"`
	Runtime   int    `json:"runtime"`
	Dev       int    `json:"dev"`
	Indirect  int    `json:"indirect,omitempty"`
	// Err is set when the manifest exists but could not be decoded
	Err string `json:"error,omitempty"`
}

// Total returns every dependency the manifest declares.
func (m Manifest) Total() int {
	return m.Runtime + m.Dev + m.Indirect
}

// Summary holds every manifest found at a root, in scan order.
type Summary struct {
	Manifests []Manifest `json:"manifests"`
}

// Total sums all manifests.
func (s *Summary) Total() int {
	n := 0
	for _, m := range s.Manifests {
		n += m.Total()
	}
	return n
}

// Lines renders one line per manifest.
func (s *Summary) Lines() []string {
	if len(s.Manifests) == 0 {
		return []string{"- no dependency manifests found"}
	}
	lines := make([]string, 0, len(s.Manifests))
	for _, m := range s.Manifests {
		if m.Err != "" {
			lines = append(lines, fmt.Sprintf("- %s (%s): unreadable", m.Path, m.Ecosystem))
			continue
		}
		line := fmt.Sprintf("- %s (%s): %d runtime, %d dev", m.Path, m.Ecosystem, m.Runtime, m.Dev)
		if m.Indirect > 0 {
			line += fmt.Sprintf(", %d indirect", m.Indirect)
		}
		lines = append(lines, line)
	}
	return lines
}

type parser func(data []byte) (Manifest, error)

var manifests = []struct {
	name      string
	ecosystem string
	parse     parser
}{
	{"go.mod", EcosystemGo, parseGoMod},
	{"package.json", EcosystemNPM, parsePackageJSON},
	{"Cargo.toml", EcosystemCargo, parseCargo},
	{"pyproject.toml", EcosystemPython, parsePyproject},
	{"requirements.txt", EcosystemPython, parseRequirements},
}

// Scan reads the known manifests at root. Decode failures are recorded on
// the manifest rather than returned; only I/O errors other than a missing
// file abort the scan.
func Scan(root string) (*Summary, error) {
	s := &Summary{}
	for _, m := range manifests {
		data, err := os.ReadFile(filepath.Join(root, m.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", m.name, err)
		}
		got, err := m.parse(data)
		got.Path = m.name
		got.Ecosystem = m.ecosystem
		if err != nil {
			got = Manifest{Path: m.name, Ecosystem: m.ecosystem, Err: err.Error()}
		}
		s.Manifests = append(s.Manifests, got)
	}
	return s, nil
}

func parseGoMod(data []byte) (Manifest, error) {
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	for _, r := range f.Require {
		if r.Indirect {
			m.Indirect++
		} else {
			m.Runtime++
		}
	}
	return m, nil
}

type packageJSON struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func parsePackageJSON(data []byte) (Manifest, error) {
	var p packageJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Runtime: len(p.Dependencies) + len(p.PeerDependencies) + len(p.OptionalDependencies),
		Dev:     len(p.DevDependencies),
	}, nil
}

type cargoManifest struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	Workspace         struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}

func parseCargo(data []byte) (Manifest, error) {
	var c cargoManifest
	if _, err := burntsushi.Decode(string(data), &c); err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Runtime: len(c.Dependencies) + len(c.Workspace.Dependencies),
		Dev:     len(c.DevDependencies) + len(c.BuildDependencies),
	}, nil
}

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
	Tool             struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyproject(data []byte) (Manifest, error) {
	var p pyproject
	if err := toml.Unmarshal(data, &p); err != nil {
		return Manifest{}, err
	}
	var m Manifest
	m.Runtime = len(p.Project.Dependencies)
	for _, extra := range p.Project.OptionalDependencies {
		m.Dev += len(extra)
	}
	for _, group := range p.DependencyGroups {
		m.Dev += len(group)
	}
	for name := range p.Tool.Poetry.Dependencies {
		// poetry lists the interpreter constraint alongside packages
		if name != "python" {
			m.Runtime++
		}
	}
	m.Dev += len(p.Tool.Poetry.DevDependencies)
	for _, g := range p.Tool.Poetry.Group {
		m.Dev += len(g.Dependencies)
	}
	return m, nil
}

func parseRequirements(data []byte) (Manifest, error) {
	var m Manifest
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		m.Runtime++
	}
	return m, sc.Err()
}
