package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
)

//go:embed templates/*
var templateFS embed.FS

var (
	textTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/incident.txt"))
	htmlTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/incident.html"))
)

// renderBodies executes the text and HTML templates against the context fields.
func renderBodies(emailCtx render.EmailContext) (text, html string, err error) {
	fields := emailCtx.Fields()

	var tb bytes.Buffer
	if err := textTemplate.Execute(&tb, fields); err != nil {
		return "", "", fmt.Errorf("failed to render text body: %w", err)
	}
	var hb bytes.Buffer
	if err := htmlTemplate.Execute(&hb, fields); err != nil {
		return "", "", fmt.Errorf("failed to render html body: %w", err)
	}
	return tb.String(), hb.String(), nil
}
