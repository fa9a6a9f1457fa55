// Package policy decides which GBZ components are encrypted.
//
// Decisions come from an ordered rule table. The built-in table embedded
// from rules.yaml is a sample with illustrative message codes; deployments
// load their own with LoadFile.
package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// Reserved message codes used by regression tests.
const (
	// TestCodeEncrypt forces encryption of every component.
	TestCodeEncrypt uint16 = 0xFFFF

	// TestCodePlain disables encryption of every component.
	TestCodePlain uint16 = 0xFFFE
)

// Policy errors.
var (
	ErrEmptyRule     = errors.New("policy: rule has no message code")
	ErrReservedCode  = errors.New("policy: rule uses a reserved test message code")
	ErrAttributeRule = errors.New("policy: attribute rule must be a plain encrypt rule")
)

//go:embed rules.yaml
var defaultRules []byte

// Rule matches components by message code and, optionally, cluster and
// command id. Rules listing attributes only match global Read Attributes
// Response frames that carry one of those attributes with SUCCESS status.
type Rule struct {
	Name        string   `yaml:"name,omitempty"`
	MessageCode uint16   `yaml:"messageCode"`
	ClusterID   *uint16  `yaml:"clusterId,omitempty"`
	CommandID   *uint8   `yaml:"commandId,omitempty"`
	Encrypt     bool     `yaml:"encrypt"`
	Attributes  []uint16 `yaml:"attributes,omitempty"`
}

// Matches reports whether the rule applies to the component.
func (r *Rule) Matches(messageCode, clusterID uint16, commandID uint8, fc zcl.FrameControl, payload []byte) bool {
	if r.MessageCode != messageCode {
		return false
	}
	if r.ClusterID != nil && *r.ClusterID != clusterID {
		return false
	}
	if r.CommandID != nil && *r.CommandID != commandID {
		return false
	}
	if len(r.Attributes) > 0 {
		if !isReadAttributesResponse(fc, commandID) {
			return false
		}
		return zcl.ContainsSuccess(payload, r.Attributes...)
	}
	return true
}

func isReadAttributesResponse(fc zcl.FrameControl, commandID uint8) bool {
	return fc.Global() && commandID == zcl.CommandReadAttributesResponse
}

// Table is an ordered list of rules. The first matching rule decides.
type Table struct {
	Rules []Rule `yaml:"rules"`
}

// ShouldEncrypt reports whether the component must be encrypted.
//
// TestCodeEncrypt and TestCodePlain override the table. ZCL Default
// Responses are never encrypted. Components no rule matches are sent in
// the clear.
func (t *Table) ShouldEncrypt(messageCode, clusterID uint16, commandID uint8, fc zcl.FrameControl, payload []byte) bool {
	switch messageCode {
	case TestCodeEncrypt:
		return true
	case TestCodePlain:
		return false
	}
	if zcl.IsDefaultResponse(fc, commandID) {
		return false
	}
	if r := t.Lookup(messageCode, clusterID, commandID, fc, payload); r != nil {
		return r.Encrypt
	}
	return false
}

// Lookup returns the first rule matching the component, or nil.
func (t *Table) Lookup(messageCode, clusterID uint16, commandID uint8, fc zcl.FrameControl, payload []byte) *Rule {
	for i := range t.Rules {
		if t.Rules[i].Matches(messageCode, clusterID, commandID, fc, payload) {
			return &t.Rules[i]
		}
	}
	return nil
}

// MessageCodes returns the distinct message codes in table order.
func (t *Table) MessageCodes() []uint16 {
	seen := make(map[uint16]bool)
	var codes []uint16
	for _, r := range t.Rules {
		if !seen[r.MessageCode] {
			seen[r.MessageCode] = true
			codes = append(codes, r.MessageCode)
		}
	}
	return codes
}

// Validate checks the table for rules that can never apply as written.
func (t *Table) Validate() error {
	for i, r := range t.Rules {
		if r.MessageCode == 0 {
			return fmt.Errorf("rule %d: %w", i, ErrEmptyRule)
		}
		if r.MessageCode == TestCodeEncrypt || r.MessageCode == TestCodePlain {
			return fmt.Errorf("rule %d (0x%04X): %w", i, r.MessageCode, ErrReservedCode)
		}
		if len(r.Attributes) > 0 && !r.Encrypt {
			return fmt.Errorf("rule %d (0x%04X): %w", i, r.MessageCode, ErrAttributeRule)
		}
	}
	return nil
}

// Load parses a YAML rule table.
func Load(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads a YAML rule table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	return Load(data)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded rule table. It is parsed once and shared;
// callers must not modify it.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Load(defaultRules)
	})
	return defaultTable, defaultErr
}
