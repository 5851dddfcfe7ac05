// Package report binds summaries and narratives into the HTML templates by
// strict placeholder substitution.
package report

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrUnresolvedPlaceholder marks a template token with no bound value. The
// run fails rather than shipping a literal {{TOKEN}} into the PDF.
var ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

//go:embed templates/*.html
var builtinTemplates embed.FS

// Template names, also the file names under templates/.
const (
	TemplateDaily   = "daily"
	TemplateWeekly  = "weekly"
	TemplateMonthly = "monthly"
)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// Template is a plain-text HTML template with {{UPPERCASE_SNAKE}} tokens.
type Template struct {
	Name string
	Text string
}

// LoadTemplate reads a template from templateDir when set, falling back to
// the built-in copies.
func LoadTemplate(templateDir, name string) (*Template, error) {
	if templateDir != "" {
		data, err := os.ReadFile(filepath.Join(templateDir, name+".html"))
		if err == nil {
			return &Template{Name: name, Text: string(data)}, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
	}
	data, err := builtinTemplates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return nil, fmt.Errorf("unknown template %q: %w", name, err)
	}
	return &Template{Name: name, Text: string(data)}, nil
}

// Placeholders returns the distinct token names the template declares.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Binding maps placeholder names to their substituted values.
type Binding map[string]string

// Compose substitutes every template token in a single pass. Tokens with no
// bound value fail the composition, naming each missing token.
func Compose(t *Template, binding Binding) (string, error) {
	var missing []string
	html := placeholderPattern.ReplaceAllStringFunc(t.Text, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := binding[name]
		if !ok {
			missing = append(missing, name)
			return token
		}
		return value
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w in template %s: %s",
			ErrUnresolvedPlaceholder, t.Name, strings.Join(missing, ", "))
	}
	return html, nil
}
