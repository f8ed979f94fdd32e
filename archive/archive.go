// Package archive persists a network into a single SQLite file and loads
// it back. The archive is a debugging and interchange sidecar, not part
// of the store's in-process contract: loading replays the file through
// the network package's public constructors, so an archive can never
// produce a network the API could not have built.
//
// Payloads are canonical JSON, zstd-compressed, with BLAKE3 digests for
// integrity. The stored network fingerprint is verified on load.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"graphstore/internal/util"
	"graphstore/network"
	"graphstore/topology"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS network (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS classes (
	seq INTEGER PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	parent TEXT NOT NULL,
	payload BLOB NOT NULL,
	digest TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS webs (
	seq INTEGER PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload BLOB NOT NULL,
	digest TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS fields (
	seq INTEGER PRIMARY KEY,
	target_kind TEXT NOT NULL,
	target_name TEXT NOT NULL,
	name TEXT NOT NULL,
	payload BLOB NOT NULL,
	digest TEXT NOT NULL
);
`

// pack compresses canonical JSON and returns the blob plus the digest of
// the uncompressed bytes.
func pack(v interface{}) ([]byte, string, error) {
	raw, err := util.CanonicalJSON(v)
	if err != nil {
		return nil, "", fmt.Errorf("encoding payload: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), util.DigestHex(raw), nil
}

// unpack decompresses a blob, verifies its digest and decodes into out.
func unpack(blob []byte, digest string, out interface{}) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return fmt.Errorf("decompressing payload: %w", err)
	}
	if util.DigestHex(raw) != digest {
		return fmt.Errorf("payload digest mismatch")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

type classPayload struct {
	Labels []string `json:"labels,omitempty"`
	Mask   []bool   `json:"mask,omitempty"`
}

type webPayload struct {
	Coords [][2]int `json:"coords"`
}

type fieldPayload struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Save writes the network into a fresh SQLite archive at path.
func Save(n *network.Network, path string) error {
	fingerprint, err := n.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprinting network: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO network (id, fingerprint, created_at) VALUES (?, ?, ?)
	`, n.ID(), fingerprint, util.NowMs()); err != nil {
		return fmt.Errorf("inserting network row: %w", err)
	}

	if err := saveClasses(tx, n); err != nil {
		return err
	}
	if err := saveWebs(tx, n); err != nil {
		return err
	}
	if err := saveFields(tx, n); err != nil {
		return err
	}

	return tx.Commit()
}

func saveClasses(tx *sql.Tx, n *network.Network) error {
	for seq, name := range n.ClassNames() {
		c, err := n.Class(name)
		if err != nil {
			return err
		}
		payload := classPayload{}
		if c.Parent() == "" {
			payload.Labels = c.Labels()
		} else {
			parent, err := n.Class(c.Parent())
			if err != nil {
				return err
			}
			payload.Mask = c.Restriction().Mask(parent.Len())
		}
		blob, digest, err := pack(payload)
		if err != nil {
			return fmt.Errorf("class %q: %w", name, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO classes (seq, name, parent, payload, digest) VALUES (?, ?, ?, ?, ?)
		`, seq, name, c.Parent(), blob, digest); err != nil {
			return fmt.Errorf("inserting class %q: %w", name, err)
		}
	}
	return nil
}

func saveWebs(tx *sql.Tx, n *network.Network) error {
	for seq, name := range n.WebNames() {
		w, err := n.Web(name)
		if err != nil {
			return err
		}
		payload := webPayload{Coords: [][2]int{}}
		w.Topology().EachEdge(func(s, t, _ int) {
			payload.Coords = append(payload.Coords, [2]int{s, t})
		})
		blob, digest, err := pack(payload)
		if err != nil {
			return fmt.Errorf("web %q: %w", name, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO webs (seq, name, source, target, kind, payload, digest)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, seq, name, w.Source(), w.Target(), topology.Kind(w.Topology()), blob, digest); err != nil {
			return fmt.Errorf("inserting web %q: %w", name, err)
		}
	}
	return nil
}

func saveFields(tx *sql.Tx, n *network.Network) error {
	seq := 0
	insert := func(targetKind, targetName, field string, values interface{}) error {
		payload, err := encodeValues(values)
		if err != nil {
			return fmt.Errorf("field %q on %s %q: %w", field, targetKind, targetName, err)
		}
		blob, digest, err := pack(payload)
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO fields (seq, target_kind, target_name, name, payload, digest)
			VALUES (?, ?, ?, ?, ?, ?)
		`, seq, targetKind, targetName, field, blob, digest); err != nil {
			return fmt.Errorf("inserting field %q: %w", field, err)
		}
		seq++
		return nil
	}

	for _, name := range n.ClassNames() {
		c, err := n.Class(name)
		if err != nil {
			return err
		}
		for _, field := range c.Fields() {
			view, err := n.NodesView(name, field)
			if err != nil {
				return err
			}
			values, err := view.Values()
			if err != nil {
				return err
			}
			if err := insert("class", name, field, values); err != nil {
				return err
			}
		}
	}
	for _, name := range n.WebNames() {
		w, err := n.Web(name)
		if err != nil {
			return err
		}
		for _, field := range w.Fields() {
			view, err := n.EdgesView(name, field)
			if err != nil {
				return err
			}
			values, err := view.Values()
			if err != nil {
				return err
			}
			if err := insert("web", name, field, values); err != nil {
				return err
			}
		}
	}
	for _, field := range n.FieldNames() {
		view, err := n.GraphView(field)
		if err != nil {
			return err
		}
		values, err := view.Values()
		if err != nil {
			return err
		}
		if err := insert("graph", "", field, values); err != nil {
			return err
		}
	}
	return nil
}

// Load rebuilds a network from an archive, replaying it through the
// store's public constructors, and verifies the stored fingerprint.
func Load(path string) (*network.Network, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer conn.Close()

	var fingerprint string
	if err := conn.QueryRow(`SELECT fingerprint FROM network`).Scan(&fingerprint); err != nil {
		return nil, fmt.Errorf("reading network row: %w", err)
	}

	n := network.New()
	if err := loadClasses(conn, n); err != nil {
		return nil, err
	}
	if err := loadWebs(conn, n); err != nil {
		return nil, err
	}
	if err := loadFields(conn, n); err != nil {
		return nil, err
	}

	got, err := n.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprinting loaded network: %w", err)
	}
	if got != fingerprint {
		return nil, fmt.Errorf("archive fingerprint mismatch: stored %s, rebuilt %s", fingerprint, got)
	}
	return n, nil
}

func loadClasses(conn *sql.DB, n *network.Network) error {
	rows, err := conn.Query(`SELECT name, parent, payload, digest FROM classes ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, parent, digest string
		var blob []byte
		if err := rows.Scan(&name, &parent, &blob, &digest); err != nil {
			return fmt.Errorf("scanning class row: %w", err)
		}
		var payload classPayload
		if err := unpack(blob, digest, &payload); err != nil {
			return fmt.Errorf("class %q: %w", name, err)
		}
		if parent == "" {
			err = n.AddClass(name, payload.Labels)
		} else {
			err = n.AddSubclassMask(parent, name, payload.Mask)
		}
		if err != nil {
			return fmt.Errorf("rebuilding class %q: %w", name, err)
		}
	}
	return rows.Err()
}

func loadWebs(conn *sql.DB, n *network.Network) error {
	rows, err := conn.Query(`SELECT name, source, target, kind, payload, digest FROM webs ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("querying webs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, source, target, kind, digest string
		var blob []byte
		if err := rows.Scan(&name, &source, &target, &kind, &blob, &digest); err != nil {
			return fmt.Errorf("scanning web row: %w", err)
		}
		var payload webPayload
		if err := unpack(blob, digest, &payload); err != nil {
			return fmt.Errorf("web %q: %w", name, err)
		}

		topo, err := rebuildTopology(n, source, target, kind, payload.Coords)
		if err != nil {
			return fmt.Errorf("rebuilding web %q: %w", name, err)
		}
		if err := n.AddWeb(name, source, target, topo); err != nil {
			return fmt.Errorf("rebuilding web %q: %w", name, err)
		}
	}
	return rows.Err()
}

func rebuildTopology(n *network.Network, source, target, kind string, rawCoords [][2]int) (topology.Topology, error) {
	src, err := n.Class(source)
	if err != nil {
		return nil, err
	}
	tgt, err := n.Class(target)
	if err != nil {
		return nil, err
	}
	coords := make([]topology.Coord, len(rawCoords))
	for i, c := range rawCoords {
		coords[i] = topology.Coord{Source: c[0], Target: c[1]}
	}

	switch kind {
	case "foreign":
		return topology.ForeignFromCoords(src.Len(), tgt.Len(), coords)
	case "foreign-full":
		return topology.NewFullForeign(src.Len(), tgt.Len()), nil
	case "reflexive":
		return topology.ReflexiveFromCoords(src.Len(), coords)
	case "reflexive-full":
		return topology.NewFullReflexive(src.Len()), nil
	case "symmetric":
		return topology.SymmetricFromCoords(src.Len(), coords)
	case "symmetric-full":
		return topology.NewFullSymmetric(src.Len()), nil
	}
	return nil, fmt.Errorf("unknown topology kind %q", kind)
}

func loadFields(conn *sql.DB, n *network.Network) error {
	rows, err := conn.Query(`SELECT target_kind, target_name, name, payload, digest FROM fields ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var targetKind, targetName, name, digest string
		var blob []byte
		if err := rows.Scan(&targetKind, &targetName, &name, &blob, &digest); err != nil {
			return fmt.Errorf("scanning field row: %w", err)
		}
		var payload fieldPayload
		if err := unpack(blob, digest, &payload); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		values, err := decodeValues(payload)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}

		switch targetKind {
		case "class":
			err = n.AddClassField(targetName, name, values)
		case "web":
			err = n.AddWebField(targetName, name, values)
		case "graph":
			err = n.AddGraphField(name, values)
		default:
			err = fmt.Errorf("unknown field target kind %q", targetKind)
		}
		if err != nil {
			return fmt.Errorf("rebuilding field %q: %w", name, err)
		}
	}
	return rows.Err()
}

func encodeValues(values interface{}) (*fieldPayload, error) {
	var kind string
	switch values.(type) {
	case []float64:
		kind = "float64"
	case []int:
		kind = "int"
	case []bool:
		kind = "bool"
	case []string:
		kind = "string"
	case map[string]float64:
		kind = "map-float64"
	case map[string]string:
		kind = "map-string"
	default:
		return nil, fmt.Errorf("values of type %T cannot be archived", values)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return &fieldPayload{Kind: kind, Data: data}, nil
}

func decodeValues(payload fieldPayload) (interface{}, error) {
	var out interface{}
	switch payload.Kind {
	case "float64":
		out = &[]float64{}
	case "int":
		out = &[]int{}
	case "bool":
		out = &[]bool{}
	case "string":
		out = &[]string{}
	case "map-float64":
		out = &map[string]float64{}
	case "map-string":
		out = &map[string]string{}
	default:
		return nil, fmt.Errorf("unknown value kind %q", payload.Kind)
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return nil, err
	}
	return reflect.ValueOf(out).Elem().Interface(), nil
}
