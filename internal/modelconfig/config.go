package modelconfig

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v2"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

//go:embed config.schema.json
var configSchemaJSON string

// Config is a parsed bergamot config description. Raw keeps the original
// text because the engine may understand keys this struct does not.
type Config struct {
	BeamSize         int           `yaml:"beam-size,omitempty"`
	Normalize        float64       `yaml:"normalize"`
	WordPenalty      float64       `yaml:"word-penalty"`
	MaxLengthBreak   int           `yaml:"max-length-break,omitempty"`
	MiniBatchWords   int           `yaml:"mini-batch-words,omitempty"`
	Workspace        int           `yaml:"workspace,omitempty"`
	MaxLengthFactor  float64       `yaml:"max-length-factor,omitempty"`
	SkipCost         bool          `yaml:"skip-cost"`
	Quiet            bool          `yaml:"quiet"`
	QuietTranslation bool          `yaml:"quiet_translation"`
	GemmPrecision    string        `yaml:"gemm-precision,omitempty"`
	Models           []string      `yaml:"models"`
	Vocabs           []string      `yaml:"vocabs"`
	Shortlist        []interface{} `yaml:"shortlist,omitempty"`

	Raw string `yaml:"-"`

	// sha256 of the whole document, unknown keys included
	fingerprint string
}

// Parse decodes and schema-validates a config description. Any failure is
// a ConfigError; artifacts are not checked here (see CheckArtifacts).
func Parse(description string) (*Config, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrConfig("config description is empty")
	}

	var doc interface{}
	if err := yaml.Unmarshal([]byte(description), &doc); err != nil {
		return nil, domain.ErrConfig("config description is not valid YAML").
			WithCause(errors.Wrap(err, "unmarshal config"))
	}

	value, err := toJSONValue(doc)
	if err != nil {
		return nil, domain.ErrConfig("config description has unsupported structure").WithCause(err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, domain.ErrConfig("config schema unavailable").WithCause(err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, domain.ErrConfig("config description failed validation").
			WithCause(errors.Wrap(err, "schema validation"))
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(description), &cfg); err != nil {
		return nil, domain.ErrConfig("config description has wrong field types").
			WithCause(errors.Wrap(err, "decode config"))
	}
	cfg.Raw = description
	fingerprint, err := canonicalHash(value)
	if err != nil {
		return nil, domain.ErrConfig("config description cannot be canonicalised").WithCause(err)
	}
	cfg.fingerprint = fingerprint
	return &cfg, nil
}

// ShortlistPath returns the shortlist file, or "" when none is configured.
func (c *Config) ShortlistPath() string {
	if len(c.Shortlist) == 0 {
		return ""
	}
	path, _ := c.Shortlist[0].(string)
	return path
}

// Artifacts lists every file the config references.
func (c *Config) Artifacts() []string {
	paths := make([]string, 0, len(c.Models)+len(c.Vocabs)+1)
	paths = append(paths, c.Models...)
	paths = append(paths, c.Vocabs...)
	if sl := c.ShortlistPath(); sl != "" {
		paths = append(paths, sl)
	}
	return paths
}

// CheckArtifacts fails with a ConfigError naming the first referenced file
// that does not exist or is a directory.
func (c *Config) CheckArtifacts() error {
	for _, path := range c.Artifacts() {
		info, err := os.Stat(path)
		if err != nil {
			return domain.ErrConfig("model artifact is missing").
				WithParam(path).
				WithCause(errors.Wrapf(err, "stat %s", path))
		}
		if info.IsDir() {
			return domain.ErrConfig("model artifact is a directory").WithParam(path)
		}
	}
	return nil
}

// Fingerprint identifies the effective configuration, including keys this
// struct does not model. Two descriptions that differ only in formatting or
// key order share a fingerprint.
func (c *Config) Fingerprint() string {
	if c.fingerprint != "" {
		return c.fingerprint
	}
	canonical, err := yaml.Marshal(c)
	if err != nil {
		canonical = []byte(c.Raw)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// canonicalHash hashes a decoded document; encoding/json writes map keys
// in sorted order.
func canonicalHash(value interface{}) (string, error) {
	canonical, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "encode canonical config")
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("config.schema.json", strings.NewReader(configSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("config.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

// toJSONValue converts a yaml.v2 document (map[interface{}]interface{}
// maps) into the value shapes the schema validator expects by
// round-tripping through encoding/json with UseNumber.
func toJSONValue(doc interface{}) (interface{}, error) {
	stringKeyed, err := stringifyKeys(doc)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(stringKeyed)
	if err != nil {
		return nil, errors.Wrap(err, "encode config as json")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, errors.Wrap(err, "decode config json")
	}
	return value, nil
}

func stringifyKeys(v interface{}) (interface{}, error) {
	switch typed := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			key, ok := k.(string)
			if !ok {
				return nil, errors.Errorf("non-string key %v", k)
			}
			converted, err := stringifyKeys(val)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, val := range typed {
			converted, err := stringifyKeys(val)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return v, nil
	}
}
