package mindmap

import (
	"time"

	"github.com/starford/mindatlas/internal/models"
)

type sample struct {
	title   string
	subject string
	labels  [3]string
	day     int
}

var samples = []sample{
	{"Algebraic Equations", "math", [3]string{"Linear Equations", "Quadratic Equations", "Polynomial Equations"}, 15},
	{"Shakespeare Works", "literature", [3]string{"Hamlet", "Romeo & Juliet", "Macbeth"}, 14},
	{"English Grammar", "english", [3]string{"Nouns", "Verbs", "Adjectives"}, 13},
	{"Newton Laws of Motion", "physics", [3]string{"First Law", "Second Law", "Third Law"}, 12},
	{"Periodic Table Elements", "chemistry", [3]string{"Hydrogen", "Helium", "Lithium"}, 11},
	{"Calculus Fundamentals", "math", [3]string{"Limits", "Derivatives", "Integrals"}, 10},
	{"World War II Events", "history", [3]string{"1939 - War Begins", "1941 - Pearl Harbor", "1945 - War Ends"}, 9},
}

// SampleLibrary builds the demo collection a fresh store starts with:
// seven three-node chains, newest first.
func SampleLibrary(newID func() (string, error)) ([]models.MindMap, error) {
	out := make([]models.MindMap, 0, len(samples))
	for _, s := range samples {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		ts := time.Date(2024, time.January, s.day, 0, 0, 0, 0, time.UTC)
		out = append(out, models.MindMap{
			ID:      id,
			Title:   s.title,
			Subject: s.subject,
			Nodes: []models.Node{
				{ID: "1", Type: models.NodeSubject, Data: models.NodeData{Label: s.labels[0]}, Position: models.Position{X: 0, Y: 0}},
				{ID: "2", Type: models.NodeTopic, Data: models.NodeData{Label: s.labels[1]}, Position: models.Position{X: 200, Y: 0}},
				{ID: "3", Type: models.NodeSubtopic, Data: models.NodeData{Label: s.labels[2]}, Position: models.Position{X: 400, Y: 0}},
			},
			Edges: []models.Edge{
				{ID: "e1-2", Source: "1", Target: "2"},
				{ID: "e2-3", Source: "2", Target: "3"},
			},
			CreatedAt: ts,
			UpdatedAt: ts,
		})
	}
	return out, nil
}
