package models

import (
	"bytes"
	"fmt"
	"html/template"
)

type (
	TemplateName string

	// Template generates the subject and body of an outgoing email.
	Template interface {
		Name() TemplateName
		Execute(content interface{}) (string, string, error)
	}

	Templates map[TemplateName]Template

	// PrecompiledTemplate compiles its subject and body once at startup.
	PrecompiledTemplate struct {
		name               TemplateName
		precompiledSubject *template.Template
		precompiledBody    *template.Template
	}
)

const (
	TemplateNameUndefined  TemplateName = ""
	TemplateNameInvitation TemplateName = "invitation"
)

func NewPrecompiledTemplate(name TemplateName, subjectTemplate string, bodyTemplate string) (*PrecompiledTemplate, error) {
	if name == TemplateNameUndefined {
		return nil, fmt.Errorf("models: name missing")
	}
	if subjectTemplate == "" {
		return nil, fmt.Errorf("models: subject template missing")
	}
	if bodyTemplate == "" {
		return nil, fmt.Errorf("models: body template missing")
	}

	precompiledSubject, err := template.New(string(name) + "_subject").Parse(subjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("models: failure to precompile subject template: %s", err)
	}
	precompiledBody, err := template.New(string(name) + "_body").Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("models: failure to precompile body template: %s", err)
	}

	return &PrecompiledTemplate{
		name:               name,
		precompiledSubject: precompiledSubject,
		precompiledBody:    precompiledBody,
	}, nil
}

func (p *PrecompiledTemplate) Name() TemplateName {
	return p.name
}

func (p *PrecompiledTemplate) Execute(content interface{}) (string, string, error) {
	var subject bytes.Buffer
	if err := p.precompiledSubject.Execute(&subject, content); err != nil {
		return "", "", fmt.Errorf("models: failure to execute subject template: %s", err)
	}

	var body bytes.Buffer
	if err := p.precompiledBody.Execute(&body, content); err != nil {
		return "", "", fmt.Errorf("models: failure to execute body template: %s", err)
	}

	return subject.String(), body.String(), nil
}
