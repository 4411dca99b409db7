package transformer

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-kgx/pkg/config"
	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

// nodeLabel is carried by every node the transformer writes, so the id
// index covers all of them regardless of category.
const nodeLabel = "Node"

// DefaultUnwindBatch is the number of rows sent per UNWIND statement.
const DefaultUnwindBatch = 1000

// Neo4jConfig locates a Neo4j database.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
}

// ParseNeo4jURI splits credentials out of a bolt:// or neo4j:// URI. A
// missing password is read from KGX_NEO4J_PASSWORD.
func ParseNeo4jURI(raw string) (Neo4jConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Neo4jConfig{}, fmt.Errorf("neo4j uri: %w", err)
	}
	if u.Host == "" {
		return Neo4jConfig{}, fmt.Errorf("neo4j uri %q: missing host", raw)
	}
	var cfg Neo4jConfig
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
		u.User = nil
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv(config.PasswordEnv)
	}
	cfg.URI = u.String()
	return cfg, nil
}

// LoadOptions selects a window of a Neo4j database.
type LoadOptions struct {
	// Start is the number of rows skipped.
	Start int
	// End, when set, bounds the window to rows [Start, End).
	End *int
	// Directed applies subject filters to relationship start nodes only.
	// Undirected loads match relationships in both directions.
	Directed bool
}

func (o LoadOptions) limit() (int, bool) {
	if o.End == nil {
		return 0, false
	}
	return max(*o.End-o.Start, 0), true
}

// Neo4jTransformer reads from and writes to a Neo4j database over Bolt.
// Filters are translated to Cypher so that only matching rows leave the
// server.
type Neo4jTransformer struct {
	base
	cfg    Neo4jConfig
	driver neo4j.DriverWithContext
	batch  int
}

func NewNeo4jTransformer(g *graph.Graph, cfg Neo4jConfig, opts ...Option) *Neo4jTransformer {
	return &Neo4jTransformer{base: newBase(FormatNeo4j, g, opts), cfg: cfg, batch: DefaultUnwindBatch}
}

// SetBatchSize changes the UNWIND batch size.
func (t *Neo4jTransformer) SetBatchSize(n int) {
	if n > 0 {
		t.batch = n
	}
}

func (t *Neo4jTransformer) connect(ctx context.Context, location string) (neo4j.DriverWithContext, error) {
	if t.driver != nil {
		return t.driver, nil
	}
	if location != "" && t.cfg.URI == "" {
		cfg, err := ParseNeo4jURI(location)
		if err != nil {
			return nil, err
		}
		t.cfg = cfg
	}
	if t.cfg.URI == "" {
		return nil, fmt.Errorf("neo4j: no uri configured")
	}
	driver, err := neo4j.NewDriverWithContext(t.cfg.URI, neo4j.BasicAuth(t.cfg.Username, t.cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connect %s: %w", t.cfg.URI, err)
	}
	t.driver = driver
	t.logger.Debug("connected", logging.String("uri", t.cfg.URI))
	return driver, nil
}

// Close releases the driver.
func (t *Neo4jTransformer) Close(ctx context.Context) error {
	if t.driver == nil {
		return nil
	}
	err := t.driver.Close(ctx)
	t.driver = nil
	return err
}

// Parse loads the whole database at source, a Bolt URI.
func (t *Neo4jTransformer) Parse(ctx context.Context, source, format string) error {
	if _, err := t.connect(ctx, source); err != nil {
		return err
	}
	return t.Load(ctx, LoadOptions{})
}

// Load reads the nodes and relationships in the window described by opts
// into the graph.
func (t *Neo4jTransformer) Load(ctx context.Context, opts LoadOptions) (err error) {
	start := time.Now()
	defer func() { t.track("parse", start, err) }()

	driver, err := t.connect(ctx, "")
	if err != nil {
		return err
	}
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	nodes, err := t.loadNodes(ctx, session, opts)
	if err != nil {
		return err
	}
	edges, err := t.loadEdges(ctx, session, opts)
	if err != nil {
		return err
	}
	t.metrics.RecordLoad(t.name, nodes, edges)
	t.logger.Debug("window loaded", logging.Int("start", opts.Start), logging.Int("nodes", nodes), logging.Int("edges", edges))
	return nil
}

func (t *Neo4jTransformer) loadNodes(ctx context.Context, session neo4j.SessionWithContext, opts LoadOptions) (int, error) {
	query, params := nodeQuery(t.filters, opts)
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("neo4j node query: %w", err)
	}
	count := 0
	for result.Next(ctx) {
		raw, _ := result.Record().Get("n")
		dn, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		n, err := t.nodeFromNeo4j(dn)
		if err != nil {
			return count, err
		}
		if !t.admitNode(n) {
			continue
		}
		if _, err := t.graph.AddNode(n); err != nil {
			return count, err
		}
		count++
	}
	return count, result.Err()
}

func (t *Neo4jTransformer) loadEdges(ctx context.Context, session neo4j.SessionWithContext, opts LoadOptions) (int, error) {
	query, params := edgeQuery(t.filters, opts)
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("neo4j edge query: %w", err)
	}
	seen := make(map[string]bool)
	count := 0
	for result.Next(ctx) {
		rec := result.Record()
		rawS, _ := rec.Get("s")
		rawR, _ := rec.Get("r")
		rawO, _ := rec.Get("o")
		s, okS := rawS.(neo4j.Node)
		r, okR := rawR.(neo4j.Relationship)
		o, okO := rawO.(neo4j.Node)
		if !okS || !okR || !okO || seen[r.ElementId] {
			continue
		}
		seen[r.ElementId] = true
		// Undirected matches may bind s to the end node.
		if r.StartElementId != s.ElementId {
			s, o = o, s
		}
		subj, err := t.nodeFromNeo4j(s)
		if err != nil {
			return count, err
		}
		obj, err := t.nodeFromNeo4j(o)
		if err != nil {
			return count, err
		}
		e := edgeFromNeo4j(subj.ID, obj.ID, r)
		if !t.filters.AdmitEdge(e, subj, obj) {
			t.metrics.RecordFilterRejection(string(graph.LocationEdge))
			continue
		}
		for _, n := range []*graph.Node{subj, obj} {
			if _, err := t.graph.AddNode(n); err != nil {
				return count, err
			}
		}
		if err := t.graph.AddEdge(e); err != nil {
			return count, err
		}
		count++
	}
	return count, result.Err()
}

// nodeFromNeo4j converts a database node. The category property wins over
// labels; the shared Node label is never a category.
func (t *Neo4jTransformer) nodeFromNeo4j(dn neo4j.Node) (*graph.Node, error) {
	props := dn.Props
	id, _ := props[fieldID].(string)
	if id == "" {
		id = dn.ElementId
	}
	cats, err := graph.Categories(props[fieldCategory])
	if err != nil {
		return nil, graph.NewError("neo4j load").Node(id).Cause(err).Err()
	}
	if len(cats) == 0 {
		for _, l := range dn.Labels {
			if l != nodeLabel {
				cats = append(cats, l)
			}
		}
	}
	n := &graph.Node{ID: id, Category: cats, Attributes: t.attributes(props, fieldID, fieldCategory)}
	return n, nil
}

// attributes converts property maps, dropping values the graph model has
// no representation for.
func (t *Neo4jTransformer) attributes(props map[string]any, skip ...string) graph.Attributes {
	out := make(graph.Attributes, len(props))
	for k, raw := range props {
		if raw == nil || slices.Contains(skip, k) {
			continue
		}
		v, err := graph.ValueOf(raw)
		if err != nil {
			t.logger.Warn("property skipped", logging.String("key", k), logging.Error(err))
			continue
		}
		out[k] = v
	}
	return out
}

func edgeFromNeo4j(subject, object string, r neo4j.Relationship) *graph.Edge {
	e := &graph.Edge{Subject: subject, Object: object, Predicate: r.Type}
	if label, ok := r.Props[fieldEdgeLabel].(string); ok && label != "" {
		e.Predicate = label
	}
	if pb, ok := r.Props[fieldProvidedBy].(string); ok {
		e.ProvidedBy = pb
	}
	attrs := make(graph.Attributes)
	for k, raw := range r.Props {
		if k == fieldEdgeLabel || k == fieldProvidedBy || raw == nil {
			continue
		}
		if v, err := graph.ValueOf(raw); err == nil {
			attrs[k] = v
		}
	}
	e.Attributes = attrs
	return e
}

// Save writes the graph with one MERGE per node and relationship.
func (t *Neo4jTransformer) Save(ctx context.Context, destination string, opts SaveOptions) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	driver, err := t.connect(ctx, destination)
	if err != nil {
		return "", err
	}
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if err := t.ensureIndex(ctx, session); err != nil {
		return "", err
	}
	for n := range t.graph.Nodes() {
		if _, err := session.Run(ctx, mergeNodeQuery(n.Category), map[string]any{"props": nodeProperties(n)}); err != nil {
			return "", fmt.Errorf("neo4j save node %s: %w", n.ID, err)
		}
	}
	for e := range t.graph.Edges() {
		params := map[string]any{"subject": e.Subject, "object": e.Object, "props": edgeProperties(e)}
		if _, err := session.Run(ctx, mergeEdgeQuery(e.Predicate), params); err != nil {
			return "", fmt.Errorf("neo4j save edge %s: %w", edgeID(e), err)
		}
	}
	t.logger.Info("saved", logging.String("uri", t.cfg.URI), logging.Int("nodes", t.graph.NodeCount()), logging.Int("edges", t.graph.EdgeCount()))
	return t.cfg.URI, nil
}

// SaveWithUnwind writes the graph in UNWIND batches grouped by category
// and predicate. It is much faster than Save for large graphs.
func (t *Neo4jTransformer) SaveWithUnwind(ctx context.Context, destination string) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	driver, err := t.connect(ctx, destination)
	if err != nil {
		return "", err
	}
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if err := t.ensureIndex(ctx, session); err != nil {
		return "", err
	}

	nodeGroups := make(map[string][]map[string]any)
	var nodeKeys []string
	for n := range t.graph.Nodes() {
		key := strings.Join(n.Category, "\x00")
		if _, ok := nodeGroups[key]; !ok {
			nodeKeys = append(nodeKeys, key)
		}
		nodeGroups[key] = append(nodeGroups[key], nodeProperties(n))
	}
	for _, key := range nodeKeys {
		var cats []string
		if key != "" {
			cats = strings.Split(key, "\x00")
		}
		if err := t.unwind(ctx, session, unwindNodeQuery(cats), nodeGroups[key]); err != nil {
			return "", err
		}
	}

	edgeGroups := make(map[string][]map[string]any)
	var predicates []string
	for e := range t.graph.Edges() {
		if _, ok := edgeGroups[e.Predicate]; !ok {
			predicates = append(predicates, e.Predicate)
		}
		edgeGroups[e.Predicate] = append(edgeGroups[e.Predicate], map[string]any{
			"subject": e.Subject, "object": e.Object, "props": edgeProperties(e),
		})
	}
	for _, p := range predicates {
		if err := t.unwind(ctx, session, unwindEdgeQuery(p), edgeGroups[p]); err != nil {
			return "", err
		}
	}
	t.logger.Info("saved with unwind", logging.String("uri", t.cfg.URI),
		logging.Int("nodes", t.graph.NodeCount()), logging.Int("edges", t.graph.EdgeCount()))
	return t.cfg.URI, nil
}

func (t *Neo4jTransformer) unwind(ctx context.Context, session neo4j.SessionWithContext, query string, rows []map[string]any) error {
	for batch := range slices.Chunk(rows, t.batch) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := session.Run(ctx, query, map[string]any{"batch": batch}); err != nil {
			return fmt.Errorf("neo4j unwind: %w", err)
		}
	}
	return nil
}

func (t *Neo4jTransformer) ensureIndex(ctx context.Context, session neo4j.SessionWithContext) error {
	query := fmt.Sprintf("CREATE INDEX node_id IF NOT EXISTS FOR (n:%s) ON (n.id)", nodeLabel)
	if _, err := session.Run(ctx, query, nil); err != nil {
		return fmt.Errorf("neo4j index: %w", err)
	}
	return nil
}

// NodeSummaryRow counts nodes of one category sharing an id prefix.
type NodeSummaryRow struct {
	Category  string
	Prefix    string
	Frequency int64
}

// EdgeSummaryRow counts relationships between two categories.
type EdgeSummaryRow struct {
	SubjectCategory string
	SubjectPrefix   string
	EdgeType        string
	ObjectCategory  string
	ObjectPrefix    string
	ProvidedBy      string
	Frequency       int64
}

// Categories lists the distinct category values stored in the database.
func (t *Neo4jTransformer) Categories(ctx context.Context) ([]string, error) {
	driver, err := t.connect(ctx, "")
	if err != nil {
		return nil, err
	}
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (x) RETURN DISTINCT x.category AS category", nil)
	if err != nil {
		return nil, err
	}
	var out []string
	for result.Next(ctx) {
		raw, _ := result.Record().Get("category")
		cats, err := graph.Categories(raw)
		if err != nil {
			return nil, err
		}
		for _, c := range cats {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

const nodeSummaryQuery = `MATCH (x) WHERE x.category = $category OR $category IN x.category
RETURN $category AS category, split(x.id, ':')[0] AS prefix, count(*) AS frequency
ORDER BY frequency DESC`

const edgeSummaryQuery = `MATCH (n)-[r]->(m)
WHERE (n.category = $category1 OR $category1 IN n.category)
  AND (m.category = $category2 OR $category2 IN m.category)
RETURN type(r) AS edge_type, r.provided_by AS provided_by,
  split(n.id, ':')[0] AS subject_prefix, split(m.id, ':')[0] AS object_prefix,
  count(*) AS frequency
ORDER BY frequency DESC`

// NodeSummary counts nodes per category and id prefix. progress, when
// not nil, is called after each category.
func (t *Neo4jTransformer) NodeSummary(ctx context.Context, progress func(done, total int)) ([]NodeSummaryRow, error) {
	cats, err := t.Categories(ctx)
	if err != nil {
		return nil, err
	}
	session := t.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	var rows []NodeSummaryRow
	for i, c := range cats {
		result, err := session.Run(ctx, nodeSummaryQuery, map[string]any{"category": c})
		if err != nil {
			return rows, err
		}
		for result.Next(ctx) {
			rec := result.Record()
			rows = append(rows, NodeSummaryRow{
				Category:  c,
				Prefix:    recordString(rec, "prefix"),
				Frequency: recordInt(rec, "frequency"),
			})
		}
		if err := result.Err(); err != nil {
			return rows, err
		}
		if progress != nil {
			progress(i+1, len(cats))
		}
	}
	return rows, nil
}

// EdgeSummary counts relationships for every ordered pair of categories.
func (t *Neo4jTransformer) EdgeSummary(ctx context.Context, progress func(done, total int)) ([]EdgeSummaryRow, error) {
	cats, err := t.Categories(ctx)
	if err != nil {
		return nil, err
	}
	session := t.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	total := len(cats) * len(cats)
	done := 0
	var rows []EdgeSummaryRow
	for _, c1 := range cats {
		for _, c2 := range cats {
			result, err := session.Run(ctx, edgeSummaryQuery, map[string]any{"category1": c1, "category2": c2})
			if err != nil {
				return rows, err
			}
			for result.Next(ctx) {
				rec := result.Record()
				rows = append(rows, EdgeSummaryRow{
					SubjectCategory: c1,
					SubjectPrefix:   recordString(rec, "subject_prefix"),
					EdgeType:        recordString(rec, "edge_type"),
					ObjectCategory:  c2,
					ObjectPrefix:    recordString(rec, "object_prefix"),
					ProvidedBy:      recordString(rec, "provided_by"),
					Frequency:       recordInt(rec, "frequency"),
				})
			}
			if err := result.Err(); err != nil {
				return rows, err
			}
			done++
			if progress != nil {
				progress(done, total)
			}
		}
	}
	return rows, nil
}

func recordString(rec *neo4j.Record, key string) string {
	raw, _ := rec.Get(key)
	s, _ := raw.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	raw, _ := rec.Get(key)
	n, _ := raw.(int64)
	return n
}

// Cypher construction. Identifiers that come from data (labels,
// relationship types, property keys) are backtick-quoted; values are
// always passed as parameters.

func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

type cypherParams struct {
	values map[string]any
}

func (p *cypherParams) add(v any) string {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	name := fmt.Sprintf("p%d", len(p.values))
	p.values[name] = v
	return "$" + name
}

// nodeConditions renders the filters at loc against variable v.
func nodeConditions(fs *graph.FilterSet, loc graph.Location, v string, p *cypherParams) []string {
	var conds []string
	for _, f := range fs.At(loc) {
		switch f.Kind {
		case graph.FilterCategory:
			conds = append(conds, categoryCondition(v, f.Value, p))
		case graph.FilterProperty:
			conds = append(conds, propertyCondition(v+"."+quoteIdent(f.Key), f.Value, p))
		}
	}
	return conds
}

func categoryCondition(v string, value graph.Value, p *cypherParams) string {
	if value.Kind == graph.KindStringList {
		param := p.add(value.Strings())
		return fmt.Sprintf("any(c IN %s WHERE %s.category = c OR c IN %s.category)", param, v, v)
	}
	param := p.add(value.Interface())
	return fmt.Sprintf("(%s.category = %s OR %s IN %s.category)", v, param, param, v)
}

// propertyCondition compares by equality only. List-valued properties are
// matched by the in-memory filters after loading.
func propertyCondition(expr string, value graph.Value, p *cypherParams) string {
	return fmt.Sprintf("%s = %s", expr, p.add(value.Interface()))
}

func edgeConditions(fs *graph.FilterSet, p *cypherParams) []string {
	var conds []string
	for _, f := range fs.At(graph.LocationEdge) {
		switch {
		case f.Kind == graph.FilterLabel && f.Value.Kind == graph.KindStringList:
			conds = append(conds, fmt.Sprintf("type(r) IN %s", p.add(f.Value.Strings())))
		case f.Kind == graph.FilterLabel:
			conds = append(conds, fmt.Sprintf("type(r) = %s", p.add(f.Value.Interface())))
		case f.Key == fieldPredicate || f.Key == fieldEdgeLabel:
			conds = append(conds, fmt.Sprintf("type(r) = %s", p.add(f.Value.Interface())))
		default:
			conds = append(conds, propertyCondition("r."+quoteIdent(f.Key), f.Value, p))
		}
	}
	return conds
}

func window(opts LoadOptions, p *cypherParams) string {
	var b strings.Builder
	if opts.Start > 0 {
		fmt.Fprintf(&b, " SKIP %s", p.add(int64(opts.Start)))
	}
	if n, ok := opts.limit(); ok {
		fmt.Fprintf(&b, " LIMIT %s", p.add(int64(n)))
	}
	return b.String()
}

// nodeQuery admits a node that satisfies the subject filters or the object
// filters. A location without filters admits everything.
func nodeQuery(fs *graph.FilterSet, opts LoadOptions) (string, map[string]any) {
	p := &cypherParams{}
	subj := nodeConditions(fs, graph.LocationSubject, "n", p)
	obj := nodeConditions(fs, graph.LocationObject, "n", p)

	var b strings.Builder
	b.WriteString("MATCH (n)")
	if len(subj) > 0 && len(obj) > 0 {
		fmt.Fprintf(&b, " WHERE (%s) OR (%s)", strings.Join(subj, " AND "), strings.Join(obj, " AND "))
	} else if len(subj) > 0 || len(obj) > 0 {
		// One side is unconstrained, so every node qualifies for it.
		p.values = nil
	}
	b.WriteString(" RETURN n ORDER BY n.id")
	b.WriteString(window(opts, p))
	return b.String(), p.values
}

func edgeQuery(fs *graph.FilterSet, opts LoadOptions) (string, map[string]any) {
	p := &cypherParams{}
	conds := nodeConditions(fs, graph.LocationSubject, "s", p)
	conds = append(conds, nodeConditions(fs, graph.LocationObject, "o", p)...)
	conds = append(conds, edgeConditions(fs, p)...)

	var b strings.Builder
	if opts.Directed {
		b.WriteString("MATCH (s)-[r]->(o)")
	} else {
		b.WriteString("MATCH (s)-[r]-(o)")
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" RETURN s, r, o ORDER BY elementId(r)")
	b.WriteString(window(opts, p))
	return b.String(), p.values
}

func nodeLabels(categories []string) string {
	var b strings.Builder
	b.WriteString(":" + nodeLabel)
	for _, c := range categories {
		if c != nodeLabel {
			b.WriteString(":" + quoteIdent(c))
		}
	}
	return b.String()
}

func relType(predicate string) string {
	if predicate == "" {
		predicate = "related_to"
	}
	return quoteIdent(predicate)
}

func mergeNodeQuery(categories []string) string {
	return fmt.Sprintf("MERGE (n:%s {id: $props.id}) SET n += $props SET n%s", nodeLabel, nodeLabels(categories))
}

func mergeEdgeQuery(predicate string) string {
	return fmt.Sprintf(`MATCH (s:%[1]s {id: $subject}), (o:%[1]s {id: $object})
MERGE (s)-[r:%[2]s {id: $props.id}]->(o) SET r += $props`, nodeLabel, relType(predicate))
}

func unwindNodeQuery(categories []string) string {
	return fmt.Sprintf("UNWIND $batch AS row MERGE (n:%s {id: row.id}) SET n += row SET n%s", nodeLabel, nodeLabels(categories))
}

func unwindEdgeQuery(predicate string) string {
	return fmt.Sprintf(`UNWIND $batch AS row
MATCH (s:%[1]s {id: row.subject}), (o:%[1]s {id: row.object})
MERGE (s)-[r:%[2]s {id: row.props.id}]->(o) SET r += row.props`, nodeLabel, relType(predicate))
}

func nodeProperties(n *graph.Node) map[string]any {
	props := n.Attributes.ToMap()
	props[fieldID] = n.ID
	if len(n.Category) > 0 {
		props[fieldCategory] = slices.Clone(n.Category)
	}
	return props
}

func edgeProperties(e *graph.Edge) map[string]any {
	id := edgeID(e)
	props := e.Attributes.ToMap()
	props[fieldID] = id
	props[fieldEdgeLabel] = e.Predicate
	if e.ProvidedBy != "" {
		props[fieldProvidedBy] = e.ProvidedBy
	}
	return props
}
