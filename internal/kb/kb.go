package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/omaromran/allai-sms-webhook/internal/models"
)

const rulesFileName = "escalation_rules.json"

// KnowledgeBase holds the category matching data loaded at startup. It is
// read-only after Load; classification iterates Categories in the stored
// (lexicographic) order to stay deterministic across runs.
type KnowledgeBase struct {
	Categories []models.Category
}

// Category returns the entry with the given name, or nil.
func (k *KnowledgeBase) Category(name string) *models.Category {
	for i := range k.Categories {
		if k.Categories[i].Name == name {
			return &k.Categories[i]
		}
	}
	return nil
}

// Load reads every <category>.json in dir into a KnowledgeBase. The rules
// file is skipped; file name stem becomes the category name. A missing or
// empty directory and malformed JSON are startup-fatal.
func Load(dir string) (*KnowledgeBase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read triage data dir %s: %w", dir, err)
	}

	kb := &KnowledgeBase{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == rulesFileName {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read category file %s: %w", name, err)
		}
		var cat models.Category
		if err := json.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("parse category file %s: %w", name, err)
		}
		cat.Name = strings.TrimSuffix(name, ".json")
		kb.Categories = append(kb.Categories, cat)
	}

	if len(kb.Categories) == 0 {
		return nil, fmt.Errorf("no category files found in %s", dir)
	}

	sort.Slice(kb.Categories, func(i, j int) bool {
		return kb.Categories[i].Name < kb.Categories[j].Name
	})
	return kb, nil
}

// LoadRules reads escalation_rules.json from dir.
func LoadRules(dir string) (models.EscalationRules, error) {
	data, err := os.ReadFile(filepath.Join(dir, rulesFileName))
	if err != nil {
		return models.EscalationRules{}, fmt.Errorf("read %s: %w", rulesFileName, err)
	}
	var rules models.EscalationRules
	if err := json.Unmarshal(data, &rules); err != nil {
		return models.EscalationRules{}, fmt.Errorf("parse %s: %w", rulesFileName, err)
	}
	if rules.AfterHoursStart < 0 || rules.AfterHoursStart > 23 {
		return models.EscalationRules{}, fmt.Errorf("after_hours_start out of range: %d", rules.AfterHoursStart)
	}
	if rules.AfterHoursEnd < 0 || rules.AfterHoursEnd > 23 {
		return models.EscalationRules{}, fmt.Errorf("after_hours_end out of range: %d", rules.AfterHoursEnd)
	}
	for _, d := range rules.Weekend {
		if d < 0 || d > 6 {
			return models.EscalationRules{}, fmt.Errorf("weekend day index out of range: %d", d)
		}
	}
	return rules, nil
}

// RuleSet holds the current escalation rules behind an atomic pointer so the
// operator can reload them between requests. In-flight requests keep the
// snapshot they read.
type RuleSet struct {
	current atomic.Pointer[models.EscalationRules]
}

func NewRuleSet(rules models.EscalationRules) *RuleSet {
	rs := &RuleSet{}
	rs.current.Store(&rules)
	return rs
}

func (r *RuleSet) Current() models.EscalationRules {
	return *r.current.Load()
}

func (r *RuleSet) Replace(rules models.EscalationRules) {
	r.current.Store(&rules)
}
