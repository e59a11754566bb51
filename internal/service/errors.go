package service

import "errors"

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrSessionNotFound   = errors.New("designer session not found")
	ErrInstanceNotFound  = errors.New("questionnaire instance not found")
	ErrInstanceCompleted = errors.New("questionnaire instance already completed")
	ErrInvalidEmail      = errors.New("invalid recipient email")
)
