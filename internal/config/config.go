// Package config decodes a rigup document into an ordered action set.
//
// Decoding is strict: unknown keys, unknown action kinds and unexpected
// fields are errors, reported with the entry's position in the list.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/atomikpanda/rigup/internal/actions"
	"github.com/atomikpanda/rigup/internal/ageutil"
	"github.com/atomikpanda/rigup/internal/pkgmgr"
)

// Format is the syntax of a config document.
type Format int

const (
	YAML Format = iota
	TOML
)

// FormatOf picks the format from the path's extension, looking through a
// trailing ".age".
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(ageutil.PlainPath(path))) {
	case ".toml":
		return TOML
	default:
		return YAML
	}
}

// DefaultNames are the file names searched for when no config is given.
var DefaultNames = []string{"rigup.yaml", "rigup.yml", "rigup.toml", "rigup.yaml.age", "rigup.toml.age"}

// document is the top-level shape of a config file.
type document struct {
	Actions []yaml.Node `yaml:"actions"`
}

const discriminant = "action"

// Load reads, decrypts when path ends in ".age", and parses the config at path.
func Load(path string, key *ageutil.Key) (actions.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ageutil.IsEncrypted(path) {
		if key == nil {
			return nil, fmt.Errorf("%s is encrypted; set --identity, RIGUP_AGE_IDENTITY or RIGUP_AGE_PASSPHRASE", path)
		}
		if data, err = key.Decrypt(data); err != nil {
			return nil, err
		}
	}
	return Parse(data, FormatOf(path))
}

// Parse decodes data into an action set.
func Parse(data []byte, format Format) (actions.Set, error) {
	if format == TOML {
		converted, err := tomlToYAML(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config is empty")
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}

	set := make(actions.Set, 0, len(doc.Actions))
	for i := range doc.Actions {
		a, err := decodeEntry(&doc.Actions[i])
		if err != nil {
			return nil, fmt.Errorf("action #%d (line %d): %w", i+1, doc.Actions[i].Line, err)
		}
		set = append(set, a)
	}
	return set, nil
}

var decoders = map[actions.Kind]func([]byte) (actions.Action, error){
	actions.KindPackageInstall: decodeHandler[actions.PackageInstall],
	actions.KindFileLink:       decodeHandler[actions.FileLink],
	actions.KindFileDownload:   decodeHandler[actions.FileDownload],
	actions.KindRepositorySync: decodeHandler[actions.RepositorySync],
	actions.KindCommandRun:     decodeHandler[actions.CommandRun],
}

// decodeEntry reads the discriminant off node and decodes the remaining
// fields strictly into the matching handler type.
func decodeEntry(entry *yaml.Node) (actions.Action, error) {
	node, err := flatten(entry)
	if err != nil {
		return actions.Action{}, err
	}
	if node.Kind != yaml.MappingNode {
		return actions.Action{}, errors.New("entry must be a mapping")
	}

	kind := ""
	fields := *node
	fields.Content = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Value == discriminant {
			if v.Kind != yaml.ScalarNode {
				return actions.Action{}, fmt.Errorf("%q must be a string", discriminant)
			}
			if kind != "" {
				return actions.Action{}, fmt.Errorf("duplicate %q field", discriminant)
			}
			kind = v.Value
			continue
		}
		fields.Content = append(fields.Content, k, v)
	}
	if kind == "" {
		return actions.Action{}, fmt.Errorf("missing %q field", discriminant)
	}

	decode, ok := decoders[actions.Kind(kind)]
	if !ok {
		return actions.Action{}, fmt.Errorf("unknown action %q (expected one of %s)", kind, kindList())
	}

	data, err := yaml.Marshal(&fields)
	if err != nil {
		return actions.Action{}, err
	}
	a, err := decode(data)
	if err != nil {
		return actions.Action{}, fmt.Errorf("%s: %w", kind, err)
	}
	return a, nil
}

// flatten returns a deep copy of n that stands on its own: aliases are
// replaced by copies of their anchored nodes and "<<" merge keys are expanded
// into the enclosing mapping. Keys written explicitly win over merged ones,
// and earlier merge sources win over later ones.
func flatten(n *yaml.Node) (*yaml.Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return flatten(n.Alias)
	case yaml.MappingNode:
		return flattenMapping(n)
	}
	c := *n
	c.Anchor = ""
	c.Content = nil
	for _, child := range n.Content {
		fc, err := flatten(child)
		if err != nil {
			return nil, err
		}
		c.Content = append(c.Content, fc)
	}
	return &c, nil
}

func flattenMapping(n *yaml.Node) (*yaml.Node, error) {
	c := *n
	c.Anchor = ""
	c.Content = nil

	var sources []*yaml.Node
	explicit := map[string]bool{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merged, err := mergeSources(v)
			if err != nil {
				return nil, err
			}
			sources = append(sources, merged...)
			continue
		}
		fk, err := flatten(k)
		if err != nil {
			return nil, err
		}
		fv, err := flatten(v)
		if err != nil {
			return nil, err
		}
		c.Content = append(c.Content, fk, fv)
		explicit[fk.Value] = true
	}

	seen := explicit
	for _, src := range sources {
		for i := 0; i+1 < len(src.Content); i += 2 {
			k := src.Content[i]
			if seen[k.Value] {
				continue
			}
			seen[k.Value] = true
			c.Content = append(c.Content, k, src.Content[i+1])
		}
	}
	return &c, nil
}

// mergeSources returns the flattened mappings named by a "<<" value: a single
// mapping or a sequence of them.
func mergeSources(v *yaml.Node) ([]*yaml.Node, error) {
	fv, err := flatten(v)
	if err != nil {
		return nil, err
	}
	switch fv.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{fv}, nil
	case yaml.SequenceNode:
		for _, item := range fv.Content {
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge sequence must contain only mappings", item.Line)
			}
		}
		return fv.Content, nil
	default:
		return nil, fmt.Errorf("line %d: merge value must be a mapping or a sequence of mappings", fv.Line)
	}
}

func decodeHandler[H actions.Handler](data []byte) (actions.Action, error) {
	var entry struct {
		actions.Filter `yaml:",inline"`
		Handler        H `yaml:",inline"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entry); err != nil && !errors.Is(err, io.EOF) {
		return actions.Action{}, err
	}
	if err := entry.Handler.Validate(); err != nil {
		return actions.Action{}, err
	}
	if pkg, ok := any(entry.Handler).(actions.PackageInstall); ok && !pkgmgr.Known(pkg.Manager()) {
		return actions.Action{}, fmt.Errorf("unknown package manager %q (expected one of %s)",
			pkg.Manager(), strings.Join(pkgmgr.Managers(), ", "))
	}
	return actions.Action{Filter: entry.Filter, Handler: entry.Handler}, nil
}

func kindList() string {
	names := make([]string, len(actions.Kinds))
	for i, k := range actions.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// tomlToYAML re-encodes a TOML document as YAML so both formats share the
// strict decoder.
func tomlToYAML(data []byte) ([]byte, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("config is empty")
	}
	out, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert toml config: %w", err)
	}
	return out, nil
}

// Discover returns explicit when set, otherwise the first default-named file
// in the working directory, otherwise the first one under the XDG config
// directories (e.g. ~/.config/rigup/rigup.yaml).
func Discover(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, name := range DefaultNames {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	for _, name := range DefaultNames {
		if path, err := xdg.SearchConfigFile(filepath.Join("rigup", name)); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file found; looked for %s in the current directory and %s",
		strings.Join(DefaultNames, ", "), filepath.Join(xdg.ConfigHome, "rigup"))
}
