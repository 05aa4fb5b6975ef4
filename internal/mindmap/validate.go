package mindmap

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mindatlas/internal/apperr"
	"github.com/starford/mindatlas/internal/models"
)

func subjectRule() validation.Rule {
	ids := models.SubjectIDs()
	allowed := make([]any, len(ids))
	for i, id := range ids {
		allowed[i] = id
	}
	return validation.In(allowed...).Error("must be a catalog subject")
}

func validNode(value any) error {
	n, ok := value.(models.Node)
	if !ok {
		return errors.New("must be a node")
	}
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Data, validation.By(func(any) error {
			return validation.Validate(n.Data.Label, validation.Required.Error("label is required"))
		})),
		validation.Field(&n.Type, validation.Required, validation.By(func(any) error {
			if !n.Type.Valid() {
				return errors.New("must be subject, topic or subtopic")
			}
			return nil
		})),
	)
}

// validate checks a complete mind map. Edge endpoints must name nodes of
// the same map and node ids must be unique.
func validate(m models.MindMap) error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&m.Subject, validation.Required, subjectRule()),
		validation.Field(&m.Nodes, validation.Each(validation.By(validNode))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	ids := make(map[string]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", apperr.ErrInvalid, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range m.Edges {
		if e.ID == "" {
			return fmt.Errorf("%w: edge id is required", apperr.ErrInvalid)
		}
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: edge %q source %q is not a node", apperr.ErrInvalid, e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: edge %q target %q is not a node", apperr.ErrInvalid, e.ID, e.Target)
		}
	}
	return nil
}

func normalizeDraft(d models.Draft) models.Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Subject = strings.TrimSpace(d.Subject)
	return d
}
