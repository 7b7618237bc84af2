package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"complianceai/internal/model"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const documentDateLayout = "02 January 2006"

// RenderTemplate substitutes {field} placeholders. User inputs win over
// company fields; {date} and {currentDate} render now. Unknown placeholders
// are left as they are.
func RenderTemplate(content string, company *model.Company, inputs map[string]interface{}, now time.Time) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := lookupField(name, company, inputs, now); ok {
			return v
		}
		return m
	})
}

func lookupField(name string, company *model.Company, inputs map[string]interface{}, now time.Time) (string, bool) {
	if v, ok := inputs[name]; ok && v != nil {
		if s := formatValue(v); s != "" {
			return s, true
		}
	}
	if company != nil {
		if s := company.Field(name); s != "" {
			return s, true
		}
	}
	switch name {
	case "date", "currentDate":
		return now.Format(documentDateLayout), true
	}
	return "", false
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// missingRequiredFields lists required template fields that have no value
// from the inputs, the company, or a template default.
func missingRequiredFields(t *model.DocumentTemplate, company *model.Company, inputs map[string]interface{}, now time.Time) []string {
	var missing []string
	for name, f := range t.RequiredFields {
		if !f.Required || f.Default != nil {
			continue
		}
		if _, ok := lookupField(name, company, inputs, now); !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
