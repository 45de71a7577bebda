package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/internal/manifest"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// Description is the title and body of a review request.
type Description struct {
	Title string
	Body  string
}

// Field is one extra manifest key and its printed value.
type Field struct {
	Key   string
	Value string
}

// Data is what templates see.
type Data struct {
	RunType    string
	Date       string
	Setpoint   string
	DateFolder string
	RunFolder  string
	Files      []string
	TotalFiles int
	Extra      []Field
	CreatedAt  string
}

// Renderer turns run metadata into a Description. Custom template files are
// read on every call so they can be fixed while the watcher runs.
type Renderer struct {
	titlePath string
	bodyPath  string
	now       func() time.Time
}

// New returns a Renderer. Empty paths select the built-in templates.
func New(titlePath, bodyPath string) *Renderer {
	return &Renderer{titlePath: titlePath, bodyPath: bodyPath, now: time.Now}
}

// Render executes the title and body templates.
func (r *Renderer) Render(meta *manifest.RunMetadata) (Description, error) {
	data := NewData(meta, r.now())

	title, err := r.execute("title", r.titlePath, data)
	if err != nil {
		return Description{}, err
	}
	body, err := r.execute("body", r.bodyPath, data)
	if err != nil {
		return Description{}, err
	}

	return Description{Title: oneLine(title), Body: strings.TrimSpace(body) + "\n"}, nil
}

func (r *Renderer) execute(name, path string, data Data) (string, error) {
	var src []byte
	var err error
	if path == "" {
		src, err = defaultTemplates.ReadFile("templates/" + name + ".tmpl")
	} else {
		src, err = os.ReadFile(path)
		name = path
	}
	if err != nil {
		return "", errors.RenderFailed(name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return "", errors.RenderFailed(name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.RenderFailed(name, err)
	}
	return buf.String(), nil
}

// NewData flattens meta for templates.
func NewData(meta *manifest.RunMetadata, at time.Time) Data {
	info := meta.Manifest.RunInfo
	d := Data{
		RunType:    info.RunType,
		Date:       info.Date,
		Setpoint:   info.FurnaceSetpoint.String(),
		DateFolder: meta.DateFolder,
		RunFolder:  meta.RunFolder,
		Files:      meta.Files,
		TotalFiles: meta.TotalFiles,
		CreatedAt:  at.Format("2006-01-02 15:04:05"),
	}
	for _, k := range info.ExtraKeys() {
		d.Extra = append(d.Extra, Field{Key: k, Value: formatValue(info.Extra[k])})
	}
	return d
}

// Minimal is the fallback when rendering fails: the default title and a
// plain file list.
func Minimal(meta *manifest.RunMetadata) Description {
	info := meta.Manifest.RunInfo
	var b strings.Builder
	for _, f := range meta.Files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return Description{
		Title: fmt.Sprintf("New run data: %s; %s; %s K", info.RunType, info.Date, info.FurnaceSetpoint),
		Body:  b.String(),
	}
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(val)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
