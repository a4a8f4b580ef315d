package core

import (
	"bytes"
	"embed"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed templates/email/*
var emailTemplatesFS embed.FS

const emailTemplatesDir = "templates/email"

var (
	templates    tmplCache
	templatesErr error
	tmplInit     sync.Once

	ErrNoTemplate = errors.New("email template not found")
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render fills TextContent & HTMLContent from BodyStr or the named template.
func (m *EmailMessage) Render(appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates)
	if templatesErr != nil {
		return templatesErr
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return errors.Wrapf(ErrNoTemplate, "%q", m.TemplateName)
	}
	data := ContextData{AppName: appName, Data: m.TemplateData}

	var buff bytes.Buffer
	if entry.text != nil && m.BodyStr == "" {
		if err := entry.text.Execute(&buff, data); err != nil {
			return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
		}
		m.TextContent = buff.String()
	}
	if entry.html != nil {
		buff.Reset()
		if err := entry.html.Execute(&buff, data); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// parseTemplates loads every template; names starting with "_" are the bases the others extend.
func parseTemplates() {
	templates = make(tmplCache)

	fps, err := fs.Glob(emailTemplatesFS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		templatesErr = errors.Wrap(err, "listing email templates")
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			entry = new(tmplCacheEntry)
			templates[name] = entry
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(emailTemplatesFS, path.Join(emailTemplatesDir, "_base.txt"), fp)
			if err != nil {
				templatesErr = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(emailTemplatesFS, path.Join(emailTemplatesDir, "_base.gohtml"), fp)
			if err != nil {
				templatesErr = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}
}
