package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	TitleMinLen       = 2
	TitleMaxLen       = 40
	DescriptionMaxLen = 100
)

type ProjectInput struct {
	Title       string
	Description *string
}

type TaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
}

// Normalize trims the input in place and checks the length limits.
func (in *ProjectInput) Normalize() error {
	var ve ValidationError
	in.Title = normalizeTitle(&ve, in.Title)
	in.Description = normalizeDescription(&ve, in.Description)
	return ve.orNil()
}

// Normalize trims the input in place and checks the length limits.
func (in *TaskInput) Normalize() error {
	var ve ValidationError
	in.Title = normalizeTitle(&ve, in.Title)
	in.Description = normalizeDescription(&ve, in.Description)
	return ve.orNil()
}

func normalizeTitle(ve *ValidationError, title string) string {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		ve.add("title", "title is required")
	case n < TitleMinLen || n > TitleMaxLen:
		ve.add("title", "title must be between 2 and 40 characters")
	}
	return title
}

// normalizeDescription maps blank descriptions to nil.
func normalizeDescription(ve *ValidationError, desc *string) *string {
	if desc == nil {
		return nil
	}
	d := strings.TrimSpace(*desc)
	if d == "" {
		return nil
	}
	if utf8.RuneCountInString(d) > DescriptionMaxLen {
		ve.add("description", "description must be at most 100 characters")
	}
	return &d
}
