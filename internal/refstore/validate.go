package refstore

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/anchor/internal/apperr"
	"github.com/starford/anchor/internal/models"
)

// validate checks required fields in a fixed order so the reported field is
// deterministic: referenceName, absolutePath, type, status.
func validate(c models.Candidate) error {
	checks := []struct {
		field string
		value any
		rules []validation.Rule
	}{
		{"referenceName", c.ReferenceName, []validation.Rule{validation.Required}},
		{"absolutePath", c.AbsolutePath, []validation.Rule{validation.Required}},
		{"type", c.Type, []validation.Rule{
			validation.Required,
			validation.In(models.TypeFolder, models.TypeFile).Error("must be folder or file"),
		}},
		{"status", c.Status, []validation.Rule{
			validation.Required,
			validation.In(
				models.StatusActive, models.StatusPaused, models.StatusCompleted,
				models.StatusIdea, models.StatusArchived,
			).Error("must be one of active, paused, completed, idea, archived"),
		}},
	}
	for _, ch := range checks {
		if err := validation.Validate(ch.value, ch.rules...); err != nil {
			msg := err.Error()
			var ve validation.Error
			if errors.As(err, &ve) {
				msg = ve.Message()
			}
			return &apperr.ValidationError{Field: ch.field, Message: msg}
		}
	}
	return nil
}

// normalize trims text fields and turns tags into a clean, duplicate-free list.
func normalize(c models.Candidate) models.Candidate {
	c.ReferenceName = strings.TrimSpace(c.ReferenceName)
	c.AbsolutePath = strings.TrimSpace(c.AbsolutePath)
	c.Type = models.RefType(strings.TrimSpace(string(c.Type)))
	c.Status = models.Status(strings.TrimSpace(string(c.Status)))

	tags := make([]string, 0, len(c.Tags))
	seen := make(map[string]struct{}, len(c.Tags))
	for _, t := range c.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	c.Tags = tags

	if c.Description != nil && strings.TrimSpace(*c.Description) == "" {
		c.Description = nil
	}
	return c
}
