package service

import (
	"fmt"
	"html/template"
	"strings"
)

// emailShell wraps composed campaign HTML in a minimal, inline-styled
// document so the rich-text body renders consistently across clients. The
// body is author-provided HTML and is embedded as-is.
const emailShell = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
      body {
        font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
        margin: 0;
        padding: 0;
        background-color: #f1f1f1;
        color: #111827;
      }
      .container {
        max-width: 600px;
        margin: 40px auto;
        background: #ffffff;
        padding: 32px 24px;
        border-radius: 6px;
      }
      .content p {
        margin: 0 0 16px 0;
        font-size: 15px;
        line-height: 1.6;
        color: #374151;
      }
      .content a {
        color: #2563eb;
        text-decoration: underline;
      }
      .signature {
        margin-top: 32px;
        font-weight: 700;
        font-size: 14px;
        color: #111827;
      }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="content">
        {{.Body}}
        <p class="signature">{{.Signature}}</p>
      </div>
    </div>
  </body>
</html>
`

var emailTemplate = template.Must(template.New("email").Parse(emailShell))

// RenderEmailHTML produces the full HTML document for one campaign send.
func RenderEmailHTML(body string, subject string, signature string) (string, error) {
	var rendered strings.Builder
	err := emailTemplate.Execute(&rendered, struct {
		Subject   string
		Body      template.HTML
		Signature string
	}{
		Subject:   subject,
		Body:      template.HTML(body),
		Signature: signature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return rendered.String(), nil
}
