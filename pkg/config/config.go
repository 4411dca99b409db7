// Package config loads the YAML merge configuration used by load-and-merge.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every load or validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// PasswordEnv fills Neo4j passwords left empty in the document.
const PasswordEnv = "KGX_NEO4J_PASSWORD"

// validate is a singleton validator instance
var validate = validator.New()

// MergeConfig names the graphs to load and merge, and where the merged
// graph goes. Targets are merged in document order.
type MergeConfig struct {
	Target      map[string]Target `yaml:"target" validate:"required,min=1,dive"`
	Destination *Destination      `yaml:"destination,omitempty" validate:"omitempty"`

	order []string
}

// Target is one source graph.
type Target struct {
	Neo4j        Neo4jConfig    `yaml:"neo4j"`
	TargetFilter map[string]any `yaml:"target_filter,omitempty"`
	QueryLimits  *QueryLimits   `yaml:"query_limits,omitempty" validate:"omitempty"`
}

// Neo4jConfig is a Bolt connection.
type Neo4jConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
}

// QueryLimits bounds the node and edge windows read from a target. A nil
// End reads to the end.
type QueryLimits struct {
	Start int  `yaml:"start" validate:"min=0"`
	End   *int `yaml:"end,omitempty"`
}

// Destination is where the merged graph is written: a Neo4j database or a
// file path (local or s3://).
type Destination struct {
	Neo4j  *Neo4jConfig `yaml:"neo4j,omitempty" validate:"required_without=Path"`
	Path   string       `yaml:"path,omitempty"`
	Format string       `yaml:"format,omitempty"`
}

// URI returns a Bolt URI. Hosts without a scheme get bolt://, and the port
// is appended when set.
func (n Neo4jConfig) URI() string {
	host := n.Host
	if !strings.Contains(host, "://") {
		host = "bolt://" + host
	}
	if n.Port == 0 {
		return host
	}
	return host + ":" + strconv.Itoa(n.Port)
}

// Names returns the target names in document order.
func (c *MergeConfig) Names() []string {
	if len(c.order) == len(c.Target) {
		return append([]string(nil), c.order...)
	}
	// Built in code rather than decoded; fall back to sorted order.
	names := make([]string, 0, len(c.Target))
	for name := range c.Target {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnmarshalYAML decodes the document and remembers the target order.
func (c *MergeConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain MergeConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = MergeConfig(p)

	c.order = nil
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch key := node.Content[i].Value; key {
		case "destination":
			continue
		case "target":
		default:
			return fmt.Errorf("line %d: unknown field %q", node.Content[i].Line, key)
		}
		targets := node.Content[i+1]
		for j := 0; j+1 < len(targets.Content); j += 2 {
			c.order = append(c.order, targets.Content[j].Value)
		}
	}
	return nil
}

// ParseMergeConfig decodes and validates a merge configuration.
func ParseMergeConfig(r io.Reader) (*MergeConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg MergeConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadMergeConfig reads a merge configuration file.
func LoadMergeConfig(path string) (*MergeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()
	cfg, err := ParseMergeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *MergeConfig) applyEnv(getenv func(string) string) {
	pw := getenv(PasswordEnv)
	if pw == "" {
		return
	}
	for name, t := range c.Target {
		if t.Neo4j.Password == "" {
			t.Neo4j.Password = pw
			c.Target[name] = t
		}
	}
	if d := c.Destination; d != nil && d.Neo4j != nil && d.Neo4j.Password == "" {
		d.Neo4j.Password = pw
	}
}

// Validate checks struct tags and the query windows.
func (c *MergeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, formatValidationError(err))
	}
	for _, name := range c.Names() {
		if q := c.Target[name].QueryLimits; q != nil && q.End != nil && *q.End < q.Start {
			return fmt.Errorf("%w: target %s: query_limits.end %d is before start %d", ErrInvalidConfig, name, *q.End, q.Start)
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := strings.TrimPrefix(e.Namespace(), "MergeConfig.")
		switch e.Tag() {
		case "required", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s: field is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must not exceed %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
