package core

import (
	"bytes"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	tmplMu        sync.RWMutex
	textTemplates = make(map[string]*texttmpl.Template)
	htmlTemplates = make(map[string]*htmltmpl.Template)
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is the root object passed to email templates.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// RegisterEmailTemplate parses and registers the text (and optional html) templates
// under `name` for use by EmailMessage.Render.
func RegisterEmailTemplate(name, text string, html ...string) {
	tmplMu.Lock()
	defer tmplMu.Unlock()
	textTemplates[name] = texttmpl.Must(texttmpl.New(name).Parse(text))
	if len(html) > 0 && html[0] != "" {
		htmlTemplates[name] = htmltmpl.Must(htmltmpl.New(name).Parse(html[0]))
	}
}

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render resolves TextContent (and HTMLContent when an html template is registered)
// from BodyStr or the registered templates.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}

	tmplMu.RLock()
	text, tok := textTemplates[m.TemplateName]
	html, hok := htmlTemplates[m.TemplateName]
	tmplMu.RUnlock()

	if tok {
		var buff bytes.Buffer
		if err := text.Execute(&buff, m.getContextData()); err != nil {
			return errors.Wrap(err, "executing text template")
		}
		m.TextContent = buff.String()
	}
	if hok {
		var buff bytes.Buffer
		if err := html.Execute(&buff, m.getContextData()); err != nil {
			return errors.Wrap(err, "executing html template")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

func (m *EmailMessage) HasAttachments() bool {
	return len(m.Attachments) > 0
}
