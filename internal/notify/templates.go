package notify

import (
	"bytes"
	"html/template"
)

const emailStyle = `
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: {{.HeaderColor}}; color: white; padding: 20px; text-align: center; }
    .content { padding: 20px; background-color: #f9f9f9; }
    .button { background-color: #4CAF50; color: white; padding: 12px 24px; text-decoration: none; display: inline-block; border-radius: 4px; margin: 20px 0; }
    .footer { text-align: center; padding: 20px; font-size: 12px; color: #666; }
`

var invitationTmpl = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>` + emailStyle + `</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Congratulations {{.CandidateName}}!</h1>
    </div>
    <div class="content">
      <p>Hi {{.CandidateName}},</p>
      <p>We are happy to let you know that your application has passed the screening round for the <strong>{{.JobTitle}}</strong> position.</p>
      <p>We would like to invite you to an interview to learn more about your experience and skills.</p>
      {{if .SchedulingLink}}<p style="text-align: center;"><a href="{{.SchedulingLink}}" class="button">Schedule your interview</a></p>{{end}}
      <p>Please reach out if you have any questions.</p>
      <p>Best regards,<br>The Recruitment Team</p>
    </div>
    <div class="footer">
      <p>This email was sent automatically. Please do not reply.</p>
    </div>
  </div>
</body>
</html>`))

var rejectionTmpl = template.Must(template.New("rejection").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>` + emailStyle + `</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Thank you {{.CandidateName}}</h1>
    </div>
    <div class="content">
      <p>Hi {{.CandidateName}},</p>
      <p>Thank you for taking the time to apply for the <strong>{{.JobTitle}}</strong> position with us.</p>
      <p>After careful consideration, we are sorry to let you know that we will not be moving forward with your application for this role.</p>
      {{if .MissingSkills}}<p>Skills to strengthen:</p><ul>{{range .MissingSkills}}<li>{{.}}</li>{{end}}</ul>{{end}}
      <p><strong>Feedback:</strong> {{.Feedback}}</p>
      <p>We encourage you to keep building on these skills and to apply again in the future.</p>
      <p>We wish you every success in your career!</p>
      <p>Best regards,<br>The Recruitment Team</p>
    </div>
    <div class="footer">
      <p>This email was sent automatically. Please do not reply.</p>
    </div>
  </div>
</body>
</html>`))

type invitationData struct {
	HeaderColor    string
	CandidateName  string
	JobTitle       string
	SchedulingLink string
}

type rejectionData struct {
	HeaderColor   string
	CandidateName string
	JobTitle      string
	Feedback      string
	MissingSkills []string
}

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
