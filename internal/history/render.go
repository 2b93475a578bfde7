package history

import (
	"bytes"
	"html/template"
)

// EmptyMarker is rendered when the ledger has no entries.
const EmptyMarker template.HTML = `<div class="empty-history">No enhancement history yet</div>`

var entriesTemplate = template.Must(template.New("history").Parse(`{{range .}}<div class="history-item">
  <div class="history-info">
    <div class="history-name" title="{{.OriginalName}}">{{.OriginalName}}</div>
    <div class="history-details">Enhanced on {{.Timestamp}}</div>
    <div class="history-settings">Upscaling: {{.Settings.UpscalingFactor}} | Sharpening: {{.Settings.Sharpening}} | Noise Reduction: {{.Settings.NoiseReduction}}</div>
  </div>
  <div class="history-actions">
    <button class="history-action-btn" data-id="{{.ID}}" data-action="view">View</button>
    <button class="history-action-btn" data-id="{{.ID}}" data-action="delete">Delete</button>
  </div>
</div>
{{end}}`))

// RenderEmpty returns the empty-state marker.
func (l *Ledger) RenderEmpty() template.HTML {
	return EmptyMarker
}

// RenderHTML renders the ledger as the history list markup.
func (l *Ledger) RenderHTML() (template.HTML, error) {
	entries := l.List()
	if len(entries) == 0 {
		return l.RenderEmpty(), nil
	}

	var buf bytes.Buffer
	if err := entriesTemplate.Execute(&buf, entries); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
