package rendering

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine renders official form templates with mapped field
// data. It uses Go's html/template package, so payload values are
// escaped by default; only the explicit safe helpers bypass escaping.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a template engine with the form helpers
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: template.FuncMap{
			// Identifier formatting
			"formatSSN":   formatSSN,
			"maskSSN":     maskSSN,
			"digitsOnly":  digitsOnly,
			"formatMoney": formatMoney,

			// Date formatting
			"formatDate": formatDate,

			// Form widgets
			"checkbox": checkbox,

			// String utilities
			"upper":   strings.ToUpper,
			"lower":   strings.ToLower,
			"title":   titleCase,
			"trim":    strings.TrimSpace,
			"default": defaultFunc,

			// Signature embedding
			"dataURL":  dataURL,
			"safeHTML": safeHTML,
		},
	}
}

// Render executes a form template against the mapped field data
func (e *TemplateEngine) Render(name, content string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatSSN renders a Social Security number as ###-##-####
func formatSSN(v any) string {
	if v == nil {
		return ""
	}
	digits := digitsOnly(fmt.Sprintf("%v", v))
	if len(digits) != 9 {
		return fmt.Sprintf("%v", v)
	}
	return digits[0:3] + "-" + digits[3:5] + "-" + digits[5:9]
}

// maskSSN renders only the last four digits, for non-official summaries
func maskSSN(v any) string {
	digits := digitsOnly(fmt.Sprintf("%v", v))
	if len(digits) != 9 {
		return "***-**-****"
	}
	return "***-**-" + digits[5:9]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatMoney renders a dollar amount with two decimal places
func formatMoney(v any) string {
	switch t := v.(type) {
	case decimal.Decimal:
		return "$" + t.StringFixed(2)
	case string:
		if t == "" {
			return ""
		}
		if d, err := decimal.NewFromString(t); err == nil {
			return "$" + d.StringFixed(2)
		}
		return t
	case float64:
		return "$" + decimal.NewFromFloat(t).StringFixed(2)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// formatDate reformats an ISO date (2006-01-02) into the MM/DD/YYYY
// layout federal forms use; unparseable input passes through
func formatDate(v any) string {
	if v == nil {
		return ""
	}
	raw := fmt.Sprintf("%v", v)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return raw
	}
	return t.Format("01/02/2006")
}

// checkbox renders a form checkbox, checked when the value is true or
// equals the expected string
func checkbox(v any, want ...string) template.HTML {
	checked := false
	switch t := v.(type) {
	case bool:
		checked = t
	case string:
		if len(want) > 0 {
			checked = t == want[0]
		} else {
			checked = t == "true"
		}
	}
	if checked {
		return template.HTML("&#9746;")
	}
	return template.HTML("&#9744;")
}

func titleCase(s string) string {
	return cases.Title(language.AmericanEnglish).String(s)
}

func defaultFunc(def, v any) any {
	if v == nil || v == "" {
		return def
	}
	return v
}

// dataURL encodes raw bytes as a data URL for inline embedding
func dataURL(mime string, data []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func safeHTML(s string) template.HTML {
	return template.HTML(s)
}
