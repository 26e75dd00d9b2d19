package utils

import (
	"strings"
	"testing"
	"time"
)

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	context := map[string]interface{}{
		"customer_name": "Dupont",
		"start_date":    "10/03/2024",
		"start_time":    "14:30",
		"price":         12.5,
		"qty":           3,
	}

	cases := []struct {
		name     string
		template string
		want     string
	}{
		{
			"basic substitution",
			"Bonjour {{customer_name}}, RDV le {{start_date}} à {{start_time}}.",
			"Bonjour Dupont, RDV le 10/03/2024 à 14:30.",
		},
		{
			"spaces inside braces",
			"Bonjour {{ customer_name }}",
			"Bonjour Dupont",
		},
		{
			"unknown placeholder renders empty",
			"Hello {{missing}}!",
			"Hello !",
		},
		{
			"float trims trailing zeros",
			"Prix: {{price}}€ x{{qty}}",
			"Prix: 12.5€ x3",
		},
		{
			"no placeholders",
			"Message fixe",
			"Message fixe",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := RenderTemplate(tc.template, context)
			if got != tc.want {
				t.Errorf("RenderTemplate(%q) = %q, want %q", tc.template, got, tc.want)
			}
			if strings.Contains(got, "{{") {
				t.Errorf("rendered message still contains a placeholder: %q", got)
			}
		})
	}
}

func TestRenderTemplateTimeFormatting(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	got := RenderTemplate("RDV: {{starts_on}}", map[string]interface{}{"starts_on": when})
	if got != "RDV: 10/03/2024 14:30" {
		t.Errorf("time rendering = %q, want %q", got, "RDV: 10/03/2024 14:30")
	}
}

func TestRenderTemplateNilContext(t *testing.T) {
	t.Parallel()

	template := "Bonjour {{customer_name}}"
	if got := RenderTemplate(template, nil); got != template {
		t.Errorf("nil context should return the template unchanged, got %q", got)
	}
}

func TestParseEventDescriptionMarkdown(t *testing.T) {
	t.Parallel()

	description := "**Client:** Dupont SA\n**Référence:** CMD-0042\n**Type:** Livraison\n**Tél client:** 0612345678"
	data := ParseEventDescription(description)

	want := map[string]string{
		"client":     "Dupont SA",
		"reference":  "CMD-0042",
		"type":       "Livraison",
		"tel_client": "0612345678",
	}
	for key, value := range want {
		if data[key] != value {
			t.Errorf("data[%q] = %q, want %q", key, data[key], value)
		}
	}
}

func TestParseEventDescriptionPlainFallback(t *testing.T) {
	t.Parallel()

	description := "Client: Martin\nType: Réparation\nAppareil: Lave-linge"
	data := ParseEventDescription(description)

	if data["client"] != "Martin" {
		t.Errorf("data[client] = %q, want %q", data["client"], "Martin")
	}
	if data["type"] != "Réparation" {
		t.Errorf("data[type] = %q, want %q", data["type"], "Réparation")
	}
	if data["appareil"] != "Lave-linge" {
		t.Errorf("data[appareil] = %q, want %q", data["appareil"], "Lave-linge")
	}
}

func TestParseEventDescriptionEmpty(t *testing.T) {
	t.Parallel()

	if data := ParseEventDescription(""); len(data) != 0 {
		t.Errorf("expected empty map, got %v", data)
	}
}

func TestExtractEventType(t *testing.T) {
	t.Parallel()

	if got := ExtractEventType("**Type:** Livraison"); got != "Livraison" {
		t.Errorf("ExtractEventType = %q, want %q", got, "Livraison")
	}
	if got := ExtractEventType("Réunion interne sans structure"); got != "" {
		t.Errorf("ExtractEventType on free text = %q, want empty", got)
	}
}
