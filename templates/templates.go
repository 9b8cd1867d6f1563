package templates

import (
	"fmt"

	"github.com/sharethoughts/courier/models"
)

func New() (models.Templates, error) {
	templates := models.Templates{}

	if template, err := NewInvitationTemplate(); err != nil {
		return nil, fmt.Errorf("templates: failure to create invitation template: %s", err)
	} else {
		templates[template.Name()] = template
	}

	return templates, nil
}
