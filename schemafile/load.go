package schemafile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	treespec "github.com/reoring/treespec"
	"github.com/reoring/treespec/i18n"
)

//go:embed metaschema.json
var metaschemaJSON []byte

type bundle struct {
	Schemas []schemaDecl `yaml:"schemas"`
	Choices []choiceDecl `yaml:"choices"`
}

type schemaDecl struct {
	Name      string      `yaml:"name"`
	Doc       string      `yaml:"doc"`
	Shortform string      `yaml:"shortform"`
	DropKeys  []string    `yaml:"drop_keys"`
	Fields    []fieldDecl `yaml:"fields"`
}

type fieldDecl struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Required    bool       `yaml:"required"`
	Default     yaml.Node  `yaml:"default"`
	DefaultExpr string     `yaml:"default_expr"`
	Help        string     `yaml:"help"`
	Min         *float64   `yaml:"min"`
	Max         *float64   `yaml:"max"`
	MinLen      *int       `yaml:"min_len"`
	MaxLen      *int       `yaml:"max_len"`
	Enum        []string   `yaml:"enum"`
	Pattern     string     `yaml:"pattern"`
	Target      string     `yaml:"target"`
	Nullable    bool       `yaml:"nullable"`
	MinItems    *int       `yaml:"min_items"`
	MaxItems    *int       `yaml:"max_items"`
	Elem        *fieldDecl `yaml:"elem"`
}

type choiceDecl struct {
	Name          string   `yaml:"name"`
	Members       []string `yaml:"members"`
	Discriminator string   `yaml:"discriminator"`
}

// LoadFile reads a YAML schema bundle and registers its contents.
func LoadFile(reg *treespec.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return treespec.Issues{bundleIssue("/", err)}
	}
	return Load(reg, data)
}

// Load registers the schemas and choice groups declared in a YAML bundle.
// Loading runs in three phases: a generic decode validated against the
// embedded bundle meta-schema, a strict typed decode, then declaration
// building and registration. Load never freezes the registry, so several
// bundles may reference each other before one Freeze call resolves them all.
func Load(reg *treespec.Registry, data []byte) error {
	doc, err := decodeGeneric(data)
	if err != nil {
		return treespec.Issues{parseIssue(err)}
	}
	if err := validateBundle(doc); err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var b bundle
	if err := dec.Decode(&b); err != nil {
		return treespec.Issues{bundleIssue("/", err)}
	}

	var issues treespec.Issues
	for i := range b.Schemas {
		d := &b.Schemas[i]
		s, err := d.build()
		if err != nil {
			issues = append(issues, bundleIssue("/schemas/"+d.Name, err))
			continue
		}
		issues = appendErr(issues, reg.Register(s))
	}
	for i := range b.Choices {
		d := &b.Choices[i]
		c, err := d.build()
		if err != nil {
			issues = append(issues, bundleIssue("/choices/"+d.Name, err))
			continue
		}
		issues = appendErr(issues, reg.RegisterChoice(c))
	}
	if len(issues) > 0 {
		return issues
	}
	return nil
}

// decodeGeneric decodes the bundle without a target type and round-trips the
// result through JSON so the meta-schema validator sees canonical JSON types.
func decodeGeneric(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var metaschema = sync.OnceValues(func() (*sjsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(metaschemaJSON, &doc); err != nil {
		return nil, err
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("treespec-bundle.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("treespec-bundle.json")
})

func validateBundle(doc any) error {
	sch, err := metaschema()
	if err != nil {
		return treespec.Issues{bundleIssue("/", err)}
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *sjsonschema.ValidationError
	if errors.As(err, &ve) {
		var issues treespec.Issues
		for _, cause := range flatten(ve) {
			issues = append(issues, treespec.Issue{
				Path:    "/" + strings.Join(cause.InstanceLocation, "/"),
				Code:    treespec.CodeInvalidBundle,
				Message: i18n.T(treespec.CodeInvalidBundle, nil),
				Hint:    fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
		return issues
	}
	return treespec.Issues{bundleIssue("/", err)}
}

// flatten recursively collects the leaf validation errors.
func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flatten(cause)...)
	}
	return flat
}

func (d *schemaDecl) build() (*treespec.Schema, error) {
	fields := make([]treespec.FieldSpec, 0, len(d.Fields))
	for i := range d.Fields {
		fs, err := d.Fields[i].spec()
		if err != nil {
			return nil, err
		}
		fields = append(fields, fs)
	}
	var opts []treespec.SchemaOption
	if d.Doc != "" {
		opts = append(opts, treespec.WithDoc(d.Doc))
	}
	if d.Shortform != "" {
		opts = append(opts, treespec.WithShortform(d.Shortform))
	}
	if len(d.DropKeys) > 0 {
		opts = append(opts, treespec.WithDropKeys(d.DropKeys...))
	}
	return treespec.NewSchema(d.Name, fields, opts...)
}

func (d *choiceDecl) build() (*treespec.Choice, error) {
	var opts []treespec.ChoiceOption
	if d.Discriminator != "" {
		opts = append(opts, treespec.WithDiscriminator(d.Discriminator))
	}
	return treespec.NewChoice(d.Name, d.Members, opts...)
}

func (f *fieldDecl) spec() (treespec.FieldSpec, error) {
	fs := treespec.FieldSpec{
		Name:     f.Name,
		Kind:     treespec.Kind(f.Type),
		Required: f.Required,
		Help:     f.Help,
		Constraints: treespec.Constraints{
			Min:      f.Min,
			Max:      f.Max,
			MinLen:   f.MinLen,
			MaxLen:   f.MaxLen,
			Enum:     f.Enum,
			Pattern:  f.Pattern,
			Target:   f.Target,
			Nullable: f.Nullable,
			MinItems: f.MinItems,
			MaxItems: f.MaxItems,
		},
	}
	if !f.Default.IsZero() {
		var v any
		if err := f.Default.Decode(&v); err != nil {
			return fs, fmt.Errorf("field %s: decode default: %w", f.Name, err)
		}
		fs.Default = v
		fs.HasDefault = true
	}
	if f.DefaultExpr != "" {
		gen, err := compileGenerator(f.Name, f.DefaultExpr)
		if err != nil {
			return fs, err
		}
		fs.Generate = gen
	}
	if f.Elem != nil {
		es, err := f.Elem.spec()
		if err != nil {
			return fs, err
		}
		fs.Elem = &es
	}
	return fs, nil
}

func bundleIssue(path string, cause error) treespec.Issue {
	return treespec.Issue{
		Path:    path,
		Code:    treespec.CodeInvalidBundle,
		Message: i18n.T(treespec.CodeInvalidBundle, nil),
		Cause:   cause,
	}
}

func parseIssue(cause error) treespec.Issue {
	return treespec.Issue{
		Path:    "/",
		Code:    treespec.CodeParseError,
		Message: i18n.T(treespec.CodeParseError, nil),
		Cause:   cause,
	}
}

func appendErr(issues treespec.Issues, err error) treespec.Issues {
	if err == nil {
		return issues
	}
	if is, ok := treespec.AsIssues(err); ok {
		return append(issues, is...)
	}
	return append(issues, bundleIssue("/", err))
}
