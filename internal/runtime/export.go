package runtime

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Exporter receives values written by the export native. Export returns
// the location the value was written to.
type Exporter interface {
	Export(path string, v Value) (string, error)
}

// DirExporter writes exports as files below Dir. The extension picks the
// rendering: .json and .yaml/.yml produce structured documents, anything
// else the value's printed form.
type DirExporter struct {
	Dir string
}

func (d *DirExporter) Export(path string, v Value) (string, error) {
	data, err := Render(path, v)
	if err != nil {
		return "", err
	}
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(d.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "create export directory")
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", full)
	}
	return full, nil
}

// MemoryExporter keeps exports in memory, keyed by path.
type MemoryExporter struct {
	Files map[string]string
}

func (m *MemoryExporter) Export(path string, v Value) (string, error) {
	data, err := Render(path, v)
	if err != nil {
		return "", err
	}
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	m.Files[path] = string(data)
	return path, nil
}

// Render encodes v in the format selected by path's extension.
func Render(path string, v Value) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := json.MarshalIndent(plain(v), "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encode json")
		}
		return append(data, '\n'), nil
	case ".yaml", ".yml":
		data, err := yaml.Marshal(plain(v))
		if err != nil {
			return nil, errors.Wrap(err, "encode yaml")
		}
		return data, nil
	default:
		return []byte(v.String() + "\n"), nil
	}
}

// plain converts a runtime value to Go data the encoders understand.
// Records keep their field order.
func plain(v Value) interface{} {
	switch val := v.(type) {
	case NumberVal:
		return float64(val)
	case StringVal:
		return string(val)
	case BoolVal:
		return bool(val)
	case NilVal, nil:
		return nil
	case *ListVal:
		out := make([]interface{}, len(val.Elements))
		for i, el := range val.Elements {
			out[i] = plain(el)
		}
		return out
	case *RecordVal:
		m := orderedMap{{"kind", val.Kind}, {"name", val.Name}}
		for _, k := range val.keys {
			m = append(m, field{k, plain(val.fields[k])})
		}
		return m
	case *Entity:
		stats := orderedMap{}
		for _, name := range val.statOrder {
			stats = append(stats, field{name, val.Stats[name]})
		}
		m := orderedMap{{"name", val.Name}, {"kind", val.Kind}}
		if val.Team != "" {
			m = append(m, field{"team", val.Team})
		}
		m = append(m, field{"stats", stats})
		if len(val.Effects) > 0 {
			effects := orderedMap{}
			for _, ae := range val.Effects {
				effects = append(effects, field{ae.Name, ae.Remaining})
			}
			m = append(m, field{"effects", effects})
		}
		return m
	default:
		return v.String()
	}
}

type field struct {
	Key   string
	Value interface{}
}

// orderedMap is a mapping that encodes its fields in order.
type orderedMap []field

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(val)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

func (m orderedMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range m {
		var key, val yaml.Node
		if err := key.Encode(f.Key); err != nil {
			return nil, err
		}
		if err := val.Encode(f.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}
