package publishers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"
)

// PublisherConfig is one entry of the publishers file. Exactly the block matching
// Type is read; Rule decides which events reach the publisher.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Rule    `yaml:",inline"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub  *GCPQueueConfig      `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// Rule selects the events a publisher receives. An empty Sections list accepts
// every section; matching ignores case and surrounding spaces.
type Rule struct {
	Sections    []string `json:"sections" yaml:"sections"`
	SkipPartial bool     `json:"skip_partial" yaml:"skip_partial"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSConfig `yaml:",inline"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSConfig `yaml:",inline"`
}

// GCPQueueConfig holds Google Cloud Pub/Sub settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// HTTPPublisherConfig describes a webhook receiving one JSON event per news item.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// settings is the type-specific block of a PublisherConfig.
type settings interface {
	normalize()
	validate() error
}

// kind ties a publisher type to its config block and constructor.
type kind struct {
	block func(*PublisherConfig) settings
	build Builder
}

var kinds = map[string]kind{
	TypeHTTP: {
		block: func(c *PublisherConfig) settings {
			if c.HTTP == nil {
				return nil
			}
			return c.HTTP
		},
		build: newWebhookPublisher,
	},
	TypeSQS: {
		block: func(c *PublisherConfig) settings {
			if c.SQS == nil {
				return nil
			}
			return c.SQS
		},
		build: newSQSPublisher,
	},
	TypeSNS: {
		block: func(c *PublisherConfig) settings {
			if c.SNS == nil {
				return nil
			}
			return c.SNS
		},
		build: newSNSPublisher,
	},
	TypePubSub: {
		block: func(c *PublisherConfig) settings {
			if c.PubSub == nil {
				return nil
			}
			return c.PubSub
		},
		build: newPubSubPublisher,
	},
}

// LoadConfigs reads a YAML or JSON publishers file and returns its enabled entries
// in file order. Unknown keys, duplicate ids and incomplete blocks are errors.
func LoadConfigs(path string) ([]PublisherConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if err := decodeConfigFile(raw, filepath.Ext(path), &file); err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]struct{}, len(file.Publishers))
	enabled := make([]PublisherConfig, 0, len(file.Publishers))
	for i := range file.Publishers {
		cfg := &file.Publishers[i]
		if err := cfg.prepare(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		if cfg.EnabledValue() {
			enabled = append(enabled, *cfg)
		}
	}
	return enabled, nil
}

func decodeConfigFile(raw []byte, ext string, out any) error {
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	case ".yaml", ".yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		return dec.Decode(out)
	default:
		return fmt.Errorf("unsupported extension %q (want .yaml, .yml or .json)", ext)
	}
}

// prepare normalizes cfg in place and checks the block its type requires.
func (cfg *PublisherConfig) prepare() error {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	cfg.Rule = cfg.Rule.normalized()

	if cfg.ID == "" {
		return errors.New("id is required")
	}
	k, ok := kinds[cfg.Type]
	if !ok {
		return fmt.Errorf("publisher %q: unsupported type %q (want one of %s)",
			cfg.ID, cfg.Type, strings.Join(slices.Sorted(maps.Keys(kinds)), ", "))
	}
	block := k.block(cfg)
	if block == nil {
		return fmt.Errorf("publisher %q: %s block is required", cfg.ID, cfg.Type)
	}
	block.normalize()
	if err := block.validate(); err != nil {
		return fmt.Errorf("publisher %q: %s.%w", cfg.ID, cfg.Type, err)
	}
	return nil
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// normalized lower-cases and de-duplicates sections, dropping blanks.
func (r Rule) normalized() Rule {
	var sections []string
	for _, s := range r.Sections {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(sections, s) {
			sections = append(sections, s)
		}
	}
	r.Sections = sections
	return r
}

// Accepts reports whether evt passes the rule.
func (r Rule) Accepts(evt Event) bool {
	if r.SkipPartial && evt.Partial {
		return false
	}
	if len(r.Sections) == 0 {
		return true
	}
	return slices.Contains(r.Sections, strings.ToLower(strings.TrimSpace(evt.Item.Section)))
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.AWSConfig.normalize()
}

func (c *SQSPublisherConfig) validate() error {
	switch {
	case c.QueueURL == "":
		return errors.New("uri is required")
	case c.Region == "":
		return errors.New("region is required")
	}
	return nil
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.AWSConfig.normalize()
}

func (c *SNSPublisherConfig) validate() error {
	switch {
	case !strings.HasPrefix(c.TopicARN, "arn:"):
		return fmt.Errorf("topic_arn %q is not an ARN", c.TopicARN)
	case c.Region == "":
		return errors.New("region is required")
	}
	return nil
}

func (c *GCPQueueConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
}

func (c *GCPQueueConfig) validate() error {
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("project_id and topic are required")
	}
	return nil
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = "POST"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = headers
}

func (c *HTTPPublisherConfig) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http(s) URL", c.URL)
	}
	switch c.Method {
	case "POST", "PUT", "PATCH":
		return nil
	default:
		return fmt.Errorf("method %s cannot carry an event body", c.Method)
	}
}

func (c HTTPPublisherConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
