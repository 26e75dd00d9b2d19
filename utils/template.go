// utils/template.go
package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders in a message template
// with values from the context. Unknown placeholders render as empty
// strings so a stale template never aborts a send. time.Time values use
// the French day/month/year, 24-hour format.
func RenderTemplate(template string, context map[string]interface{}) string {
	if template == "" || context == nil {
		return template
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := context[key]
		if !ok || value == nil {
			return ""
		}
		return stringifyValue(value)
	})
}

func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("02/01/2006 15:04")
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	case float32:
		return stringifyValue(float64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Structured description grammar: events carry domain fields embedded in
// their free-text description, one per line, either as markdown
// ("**Client:** Dupont") or plain ("Client: Dupont"). The known keys map
// to template context names.
var descriptionKeys = map[string]string{
	"Client":        "client",
	"Référence":     "reference",
	"Type":          "type",
	"Article":       "article",
	"Tél client":    "tel_client",
	"Email client":  "email_client",
	"Appareil":      "appareil",
	"Camion requis": "camion_requis",
}

// ParseEventDescription extracts the structured key/value pairs from an
// event description. Markdown-wrapped keys are tried first; when none
// match, the plain grammar is used as a fallback.
func ParseEventDescription(description string) map[string]string {
	if description == "" {
		return map[string]string{}
	}

	data := parseWithWrapper(description, true)
	if len(data) == 0 {
		data = parseWithWrapper(description, false)
	}
	return data
}

func parseWithWrapper(description string, markdown bool) map[string]string {
	data := make(map[string]string)

	for label, key := range descriptionKeys {
		var pattern string
		if markdown {
			pattern = `\*\*` + regexp.QuoteMeta(label) + `:\*\*\s*([^\n\r*]+)`
		} else {
			pattern = regexp.QuoteMeta(label) + `:\s*([^\n\r]+)`
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(description); m != nil {
			data[key] = strings.TrimSpace(m[1])
		}
	}

	return data
}

// ExtractEventType returns the "Type:" field of a structured description,
// or an empty string when the description carries none.
func ExtractEventType(description string) string {
	return ParseEventDescription(description)["type"]
}
