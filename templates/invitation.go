package templates

import "github.com/sharethoughts/courier/models"

const invitationSubjectTemplate = `You've been invited to collaborate on "{{ .DocumentTitle }}"`

const invitationBodyTemplate = `<div>
  <h2>You've been invited to collaborate on "{{ .DocumentTitle }}"</h2>
  <p>{{ .InviterEmail }} has invited you to collaborate on a document.</p>
  <p>Click the link below to accept the invitation:</p>
  <p><a href="{{ .AcceptURL }}">Accept Invitation</a></p>
  <p>Or copy and paste this link into your browser:</p>
  <p>{{ .AcceptURL }}</p>
  <p>This link will expire in 7 days.</p>
</div>`

func NewInvitationTemplate() (models.Template, error) {
	return models.NewPrecompiledTemplate(models.TemplateNameInvitation, invitationSubjectTemplate, invitationBodyTemplate)
}
