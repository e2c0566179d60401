package notification

import (
	"bytes"
	"errors"
	"html/template"
)

type templateData struct {
	AppName string
	Name    string
	Link    string
}

const layout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{template "title" .}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f4f4f4; margin: 0; padding: 0;">
<div style="max-width: 600px; margin: 20px auto; background-color: #fff; border-radius: 10px; overflow: hidden;">
<div style="background: #667eea; color: #fff; padding: 30px; text-align: center;">
<h1 style="margin: 0; font-size: 28px;">{{template "title" .}}</h1>
</div>
<div style="padding: 30px;">
<p style="font-size: 18px;">Hello {{.Name}}!</p>
{{template "content" .}}
<p style="text-align: center;"><a href="{{.Link}}" style="display: inline-block; background: #667eea; color: #fff; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">{{template "action" .}}</a></p>
<p style="font-size: 12px; color: #667eea; word-break: break-all;">If the button does not work, copy this link into your browser: {{.Link}}</p>
</div>
<div style="background-color: #f8f9fa; padding: 20px; text-align: center; font-size: 14px; color: #666;">
<p>{{.AppName}}</p>
</div>
</div>
</body>
</html>`

var (
	verificationTemplate = template.Must(template.Must(template.New("verification").Parse(layout)).Parse(`
{{define "title"}}Verify Your Email Address{{end}}
{{define "action"}}Verify Email{{end}}
{{define "content"}}<p>Thanks for signing up to {{.AppName}}. Please confirm your email address to activate your account.</p>
<p style="font-size: 14px; color: #856404;">This link expires soon. If you did not create an account, you can ignore this email.</p>{{end}}
`))

	passwordResetTemplate = template.Must(template.Must(template.New("password-reset").Parse(layout)).Parse(`
{{define "title"}}Password Reset Request{{end}}
{{define "action"}}Reset Password{{end}}
{{define "content"}}<p>We received a request to reset the password for your account. If you made this request, use the button below to choose a new password.</p>
<p style="font-size: 14px; color: #856404;">This link expires in 15 minutes. If you did not request a reset, your password stays unchanged.</p>{{end}}
`))
)

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	return buf.String(), nil
}
