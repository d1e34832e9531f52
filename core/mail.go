package core

import (
	"bytes"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/Junosprite007/mod-equipmentcheckout/fs"
)

const emailTemplatesDir = "templates/email"

var (
	templates map[string]templateSet // {name: {ext: template}}
	tmplErr   error
	tmplInit  sync.Once
)

type (
	// executor is satisfied by both text and html templates.
	executor interface {
		Execute(w io.Writer, data interface{}) error
	}
	templateSet map[string]executor

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// execute renders the `ext` variant of the message template; a missing variant renders "".
func (m *EmailMessage) execute(ext string, data ContextData) (string, error) {
	tmpl, ok := templates[m.TemplateName][ext]
	if !ok {
		return "", nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return "", err
	}
	return buff.String(), nil
}

// Render fills TextContent and HTMLContent from the message's templates.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	tmplInit.Do(parseTemplates) // only execute once during first request
	if tmplErr != nil {
		return tmplErr
	}

	data := ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
	var err error
	if m.BodyStr == "" {
		if m.TextContent, err = m.execute(".txt", data); err != nil {
			return errors.Wrap(err, "rendering text")
		}
	}
	m.HTMLContent, err = m.execute(".gohtml", data)
	return errors.Wrap(err, "rendering html")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	templates = make(map[string]templateSet)

	entries, err := fs.ReadDir(appfs.FS, emailTemplatesDir)
	if err != nil {
		tmplErr = errors.Wrap(err, "reading email templates")
		return
	}

	for _, de := range entries {
		fname := de.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		patterns := []string{path.Join(emailTemplatesDir, "_base"+ext), path.Join(emailTemplatesDir, fname)}

		var tmpl executor
		if ext == ".txt" {
			var t *texttmpl.Template
			if t, err = texttmpl.ParseFS(appfs.FS, patterns...); err == nil {
				tmpl = t.Option("missingkey=error")
			}
		} else {
			var t *htmltmpl.Template
			if t, err = htmltmpl.ParseFS(appfs.FS, patterns...); err == nil {
				tmpl = t.Option("missingkey=error")
			}
		}
		if err != nil {
			tmplErr = errors.Wrapf(err, "parsing %s", fname)
			return
		}

		name := strings.TrimSuffix(fname, ext)
		if templates[name] == nil {
			templates[name] = make(templateSet)
		}
		templates[name][ext] = tmpl
	}
}
