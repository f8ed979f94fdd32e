package network

import (
	"fmt"

	"graphstore/cow"
	"graphstore/internal/util"
	"graphstore/topology"
)

// Dump renders the whole network structure and data as plain maps and
// slices, suitable for canonical JSON. Everything is copied; nothing in
// the result aliases stored values.
func (n *Network) Dump() (map[string]interface{}, error) {
	classes := make([]interface{}, 0, len(n.classOrder))
	for _, name := range n.classOrder {
		c := n.classes[name]
		entry := map[string]interface{}{
			"name":   c.name,
			"labels": c.Labels(),
		}
		if c.parent != "" {
			entry["parent"] = c.parent
			entry["mask"] = c.res.Mask(n.classes[c.parent].Len())
		}
		fields, err := dumpFields(c.data, c.fields)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", name, err)
		}
		entry["fields"] = fields
		classes = append(classes, entry)
	}

	webs := make([]interface{}, 0, len(n.webOrder))
	for _, name := range n.webOrder {
		w := n.webs[name]
		var coords [][2]int
		w.topo.EachEdge(func(s, t, _ int) {
			coords = append(coords, [2]int{s, t})
		})
		fields, err := dumpFields(w.data, w.fields)
		if err != nil {
			return nil, fmt.Errorf("web %q: %w", name, err)
		}
		webs = append(webs, map[string]interface{}{
			"name":   w.name,
			"source": w.source,
			"target": w.target,
			"kind":   topology.Kind(w.topo),
			"coords": coords,
			"fields": fields,
		})
	}

	graph, err := dumpFields(n.data, n.fieldOrder)
	if err != nil {
		return nil, fmt.Errorf("graph fields: %w", err)
	}

	return map[string]interface{}{
		"labels":  n.Labels(),
		"classes": classes,
		"webs":    webs,
		"graph":   graph,
	}, nil
}

func dumpFields(data map[string]*cow.Entry, order []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(order))
	for _, name := range order {
		var value interface{}
		var err error
		data[name].Read(func(v interface{}) {
			value, err = cow.Clone(v)
		})
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = value
	}
	return out, nil
}

// Fingerprint returns the BLAKE3 digest of the canonical JSON rendering
// of the network. Two networks with identical structure and data always
// fingerprint the same, independent of sharing; a fork fingerprints equal
// to its original until one of them diverges.
func (n *Network) Fingerprint() (string, error) {
	dump, err := n.Dump()
	if err != nil {
		return "", err
	}
	payload, err := util.CanonicalJSON(dump)
	if err != nil {
		return "", fmt.Errorf("encoding network: %w", err)
	}
	return util.DigestHex(payload), nil
}
