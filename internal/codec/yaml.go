package codec

import (
	"fmt"
	"io"

	"bnshell/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlNetwork is the YAML document layout. Evidence is kept apart from the
// variables so a hand-written file can set evidence without listing the topology.
type yamlNetwork struct {
	Network   string         `yaml:"network"`
	Evidence  map[string]any `yaml:"evidence,omitempty"`
	Variables []yamlVariable `yaml:"variables,omitempty"`
}

type yamlVariable struct {
	Name      string   `yaml:"name"`
	Parents   []string `yaml:"parents,flow,omitempty"`
	Children  []string `yaml:"children,flow,omitempty"`
	Posterior string   `yaml:"posterior,omitempty"`
}

// Parse reads a snapshot from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.NetworkSnapshot, error) {
	var yn yamlNetwork
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yn); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if yn.Network == "" {
		return nil, fmt.Errorf("failed to parse YAML: document has no network name")
	}

	snap := &domain.NetworkSnapshot{Name: yn.Network}
	seen := make(map[string]bool)
	for _, yv := range yn.Variables {
		vs := domain.VariableSnapshot{
			Name:      yv.Name,
			Parents:   yv.Parents,
			Children:  yv.Children,
			Posterior: yv.Posterior,
		}
		if ev, ok := yn.Evidence[yv.Name]; ok {
			vs.Evidence = ev
		}
		seen[yv.Name] = true
		snap.Variables = append(snap.Variables, vs)
	}

	// Evidence for variables the document does not list
	for _, name := range sortedKeys(yn.Evidence) {
		if !seen[name] {
			snap.Variables = append(snap.Variables, domain.VariableSnapshot{Name: name, Evidence: yn.Evidence[name]})
		}
	}

	return snap, nil
}

// Export writes a snapshot as YAML
func (c *YAMLCodec) Export(snap *domain.NetworkSnapshot, w io.Writer) error {
	yn := yamlNetwork{
		Network:   snap.Name,
		Variables: make([]yamlVariable, 0, len(snap.Variables)),
	}

	for _, v := range snap.Variables {
		yn.Variables = append(yn.Variables, yamlVariable{
			Name:      v.Name,
			Parents:   v.Parents,
			Children:  v.Children,
			Posterior: v.Posterior,
		})
		if v.Evidence != nil {
			if yn.Evidence == nil {
				yn.Evidence = make(map[string]any)
			}
			yn.Evidence[v.Name] = v.Evidence
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yn); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
