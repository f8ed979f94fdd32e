// Package schema builds a network from a declarative YAML description:
// classes with their labels, subclasses by explicit labels, mask or glob
// pattern, webs from dense matrices or coordinate lists, and data fields
// at every level. The loader only drives the network package's public
// constructors, so a bad document surfaces the store's own typed errors.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"graphstore/network"
	"graphstore/topology"
)

// Doc is the YAML shape of a network description.
type Doc struct {
	Classes    []ClassDef    `yaml:"classes"`
	Subclasses []SubclassDef `yaml:"subclasses"`
	Webs       []WebDef      `yaml:"webs"`
	Fields     []FieldDef    `yaml:"fields"`
}

// ClassDef declares a root-derived class and its node labels.
type ClassDef struct {
	Name   string   `yaml:"name"`
	Labels []string `yaml:"labels"`
}

// SubclassDef declares a subclass by exactly one of: explicit labels, a
// boolean mask over the parent, or a doublestar glob pattern.
type SubclassDef struct {
	Name    string   `yaml:"name"`
	Parent  string   `yaml:"parent"`
	Labels  []string `yaml:"labels"`
	Mask    []bool   `yaml:"mask"`
	Pattern string   `yaml:"pattern"`
}

// WebDef declares an edge topology between two classes, either full, from
// a dense numeric matrix (non-zero marks an edge), or from a coordinate
// list.
type WebDef struct {
	Name   string      `yaml:"name"`
	Source string      `yaml:"source"`
	Target string      `yaml:"target"`
	Kind   string      `yaml:"kind"` // foreign | reflexive | symmetric
	Full   bool        `yaml:"full"`
	Matrix [][]float64 `yaml:"matrix"`
	Edges  [][2]int    `yaml:"edges"`
}

// FieldDef attaches data to a class, a web, or the graph itself
// (target "graph").
type FieldDef struct {
	Target string      `yaml:"target"`
	Name   string      `yaml:"name"`
	Values interface{} `yaml:"values"`
}

// Load reads a YAML file and builds the network it describes.
func Load(path string) (*network.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse builds a network from YAML bytes.
func Parse(data []byte) (*network.Network, error) {
	var doc Doc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return Build(&doc)
}

// Build constructs a network from a parsed document.
func Build(doc *Doc) (*network.Network, error) {
	n := network.New()

	for _, c := range doc.Classes {
		if err := n.AddClass(c.Name, c.Labels); err != nil {
			return nil, fmt.Errorf("class %q: %w", c.Name, err)
		}
	}

	for _, s := range doc.Subclasses {
		if err := addSubclass(n, s); err != nil {
			return nil, fmt.Errorf("subclass %q: %w", s.Name, err)
		}
	}

	for _, w := range doc.Webs {
		topo, err := buildTopology(n, w)
		if err != nil {
			return nil, fmt.Errorf("web %q: %w", w.Name, err)
		}
		if err := n.AddWeb(w.Name, w.Source, w.Target, topo); err != nil {
			return nil, fmt.Errorf("web %q: %w", w.Name, err)
		}
	}

	for _, f := range doc.Fields {
		if err := addField(n, f); err != nil {
			return nil, fmt.Errorf("field %q on %q: %w", f.Name, f.Target, err)
		}
	}

	return n, nil
}

func addSubclass(n *network.Network, s SubclassDef) error {
	defined := 0
	for _, set := range []bool{len(s.Labels) > 0, len(s.Mask) > 0, s.Pattern != ""} {
		if set {
			defined++
		}
	}
	if defined != 1 {
		return fmt.Errorf("need exactly one of labels, mask or pattern")
	}

	switch {
	case s.Pattern != "":
		return n.AddSubclassPattern(s.Parent, s.Name, s.Pattern)
	case len(s.Mask) > 0:
		return n.AddSubclassMask(s.Parent, s.Name, s.Mask)
	default:
		p, err := n.Class(s.Parent)
		if err != nil {
			return err
		}
		mask := make([]bool, p.Len())
		for _, label := range s.Labels {
			pos, ok := p.PositionOf(label)
			if !ok {
				return &network.LabelError{Label: label, Class: s.Parent, Valid: p.Labels()}
			}
			mask[pos] = true
		}
		return n.AddSubclassMask(s.Parent, s.Name, mask)
	}
}

func buildTopology(n *network.Network, w WebDef) (topology.Topology, error) {
	src, err := n.Class(w.Source)
	if err != nil {
		return nil, err
	}
	tgt, err := n.Class(w.Target)
	if err != nil {
		return nil, err
	}

	if w.Full {
		switch w.Kind {
		case "foreign":
			return topology.NewFullForeign(src.Len(), tgt.Len()), nil
		case "reflexive":
			return topology.NewFullReflexive(src.Len()), nil
		case "symmetric":
			return topology.NewFullSymmetric(src.Len()), nil
		}
		return nil, fmt.Errorf("unknown topology kind %q", w.Kind)
	}

	if w.Matrix != nil {
		dense := make([][]bool, len(w.Matrix))
		for i, row := range w.Matrix {
			dense[i] = make([]bool, len(row))
			for j, x := range row {
				dense[i][j] = x != 0
			}
		}
		switch w.Kind {
		case "foreign":
			return topology.NewForeign(dense)
		case "reflexive":
			return topology.NewReflexive(dense)
		case "symmetric":
			return topology.NewSymmetric(dense)
		}
		return nil, fmt.Errorf("unknown topology kind %q", w.Kind)
	}

	coords := make([]topology.Coord, len(w.Edges))
	for i, e := range w.Edges {
		coords[i] = topology.Coord{Source: e[0], Target: e[1]}
	}
	switch w.Kind {
	case "foreign":
		return topology.ForeignFromCoords(src.Len(), tgt.Len(), coords)
	case "reflexive":
		return topology.ReflexiveFromCoords(src.Len(), coords)
	case "symmetric":
		return topology.SymmetricFromCoords(src.Len(), coords)
	}
	return nil, fmt.Errorf("unknown topology kind %q", w.Kind)
}

func addField(n *network.Network, f FieldDef) error {
	values, err := convertValues(f.Values)
	if err != nil {
		return err
	}
	if f.Target == "graph" {
		return n.AddGraphField(f.Name, values)
	}
	if _, err := n.Class(f.Target); err == nil {
		return n.AddClassField(f.Target, f.Name, values)
	}
	if _, err := n.Web(f.Target); err == nil {
		return n.AddWebField(f.Target, f.Name, values)
	}
	return &network.UnknownNameError{Kind: "class or web", Name: f.Target}
}

// convertValues narrows the interface values YAML produces into one of
// the store's copyable types. A sequence with any float becomes
// []float64; all-int, all-bool and all-string sequences map directly.
func convertValues(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []interface{}:
		return convertSlice(val)
	case map[string]interface{}:
		return convertMap(val)
	default:
		return nil, fmt.Errorf("unsupported values shape %T", v)
	}
}

func convertSlice(vals []interface{}) (interface{}, error) {
	if len(vals) == 0 {
		return []float64{}, nil
	}
	allInt, allFloat, allBool, allString := true, true, true, true
	for _, x := range vals {
		switch x.(type) {
		case int:
			allBool, allString = false, false
		case float64:
			allInt, allBool, allString = false, false, false
		case bool:
			allInt, allFloat, allString = false, false, false
		case string:
			allInt, allFloat, allBool = false, false, false
		default:
			return nil, fmt.Errorf("unsupported element %T", x)
		}
	}
	switch {
	case allInt:
		out := make([]int, len(vals))
		for i, x := range vals {
			out[i] = x.(int)
		}
		return out, nil
	case allFloat:
		out := make([]float64, len(vals))
		for i, x := range vals {
			switch n := x.(type) {
			case float64:
				out[i] = n
			case int:
				out[i] = float64(n)
			}
		}
		return out, nil
	case allBool:
		out := make([]bool, len(vals))
		for i, x := range vals {
			out[i] = x.(bool)
		}
		return out, nil
	case allString:
		out := make([]string, len(vals))
		for i, x := range vals {
			out[i] = x.(string)
		}
		return out, nil
	}
	return nil, fmt.Errorf("mixed element types in values")
}

func convertMap(vals map[string]interface{}) (interface{}, error) {
	allNum, allString := true, true
	for _, x := range vals {
		switch x.(type) {
		case int, float64:
			allString = false
		case string:
			allNum = false
		default:
			return nil, fmt.Errorf("unsupported map value %T", x)
		}
	}
	switch {
	case allNum:
		out := make(map[string]float64, len(vals))
		for k, x := range vals {
			switch n := x.(type) {
			case float64:
				out[k] = n
			case int:
				out[k] = float64(n)
			}
		}
		return out, nil
	case allString:
		out := make(map[string]string, len(vals))
		for k, x := range vals {
			out[k] = x.(string)
		}
		return out, nil
	}
	return nil, fmt.Errorf("mixed map value types")
}
