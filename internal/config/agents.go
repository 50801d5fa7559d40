package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/casualjim/vshl/pkg/slogx"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Agents is a parsed voice agents document.
type Agents struct {
	Specs []voiceagent.Spec
	// Default is the id of the default agent, valid when HasDefault is set.
	Default    string
	HasDefault bool
	// Skipped counts entries left out because a field was missing.
	Skipped int
}

var requiredAgentFields = []struct {
	name string
	typ  gjson.Type
}{
	{"id", gjson.String},
	{"active", gjson.True},
	{"name", gjson.String},
	{"api", gjson.String},
	{"wakewords", gjson.JSON},
	{"activewakeword", gjson.String},
	{"description", gjson.String},
	{"vendor", gjson.String},
}

// ParseAgents reads a voice agents document:
//
//	{"agents": [{"id": ..., "name": ..., "description": ..., "api": ..., "vendor": ...,
//	             "wakewords": [...], "activewakeword": ..., "active": true}],
//	 "default": "<agent id>"}
//
// Entries missing a field are skipped with a warning. A missing default is not an
// error here, callers decide when to report it.
func ParseAgents(ctx context.Context, data []byte) (*Agents, error) {
	if !gjson.ValidBytes(data) {
		return nil, fault.Validation("agents document is not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	agents := doc.Get("agents")
	if !agents.IsArray() {
		return nil, fault.Validation("agents document has no agents array")
	}

	result := &Agents{}
	agents.ForEach(func(_, entry gjson.Result) bool {
		if missing := missingField(entry); missing != "" {
			slog.WarnContext(ctx, "skipping voice agent with missing field",
				slogx.LoggerName("vshl::config"),
				slog.String("field", missing),
				slog.String("entry", entry.Raw),
			)
			result.Skipped++
			return true
		}

		spec := voiceagent.Spec{
			ID:             entry.Get("id").String(),
			Name:           entry.Get("name").String(),
			Description:    entry.Get("description").String(),
			API:            entry.Get("api").String(),
			Vendor:         entry.Get("vendor").String(),
			ActiveWakeword: entry.Get("activewakeword").String(),
			Active:         entry.Get("active").Bool(),
		}
		for _, ww := range entry.Get("wakewords").Array() {
			spec.Wakewords = append(spec.Wakewords, ww.String())
		}
		result.Specs = append(result.Specs, spec)
		return true
	})

	if def := doc.Get("default"); def.Exists() && def.Type == gjson.String {
		result.Default = def.String()
		result.HasDefault = true
	}
	return result, nil
}

func missingField(entry gjson.Result) string {
	for _, field := range requiredAgentFields {
		v := entry.Get(field.name)
		if !v.Exists() {
			return field.name
		}
		switch field.typ {
		case gjson.True:
			if v.Type != gjson.True && v.Type != gjson.False {
				return field.name
			}
		case gjson.JSON:
			if !v.IsArray() {
				return field.name
			}
		default:
			if v.Type != field.typ {
				return field.name
			}
		}
	}
	return ""
}

// ReadAgentsFile reads a JSON or YAML voice agents document from path. YAML is
// chosen by the .yaml or .yml extension.
func ReadAgentsFile(ctx context.Context, path string) (*Agents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = YAMLToJSON(data); err != nil {
			return nil, err
		}
	}
	return ParseAgents(ctx, data)
}

// YAMLToJSON converts a YAML document into its JSON form.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fault.Validation("agents document is not valid YAML: %v", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fault.Validation("agents document cannot be represented as JSON: %v", err)
	}
	return out, nil
}
