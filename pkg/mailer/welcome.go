package mailer

import (
	"bytes"
	htmpl "html/template"
	texttpl "text/template"
)

// WelcomeData feeds the welcome email templates.
type WelcomeData struct {
	AppName string
	Name    string
	Email   string
}

var welcomeText = texttpl.Must(texttpl.New("welcome.txt").Parse(
	`Hi {{.Name}},

An account for {{.Email}} was created on {{.AppName}}.

If you did not expect this email you can ignore it.
`))

var welcomeHTML = htmpl.Must(htmpl.New("welcome.html").Parse(
	`<p>Hi {{.Name}},</p>
<p>An account for <strong>{{.Email}}</strong> was created on {{.AppName}}.</p>
<p>If you did not expect this email you can ignore it.</p>
`))

// RenderWelcome returns subject, text and html bodies for a new user.
func RenderWelcome(d WelcomeData) (string, string, string, error) {
	var text, html bytes.Buffer
	if err := welcomeText.Execute(&text, d); err != nil {
		return "", "", "", err
	}
	if err := welcomeHTML.Execute(&html, d); err != nil {
		return "", "", "", err
	}
	return "Welcome to " + d.AppName, text.String(), html.String(), nil
}
