// Package models defines the domain types for mindatlas.
package models

import "time"

// NodeType classifies a node in a mind map.
type NodeType string

const (
	NodeSubject  NodeType = "subject"
	NodeTopic    NodeType = "topic"
	NodeSubtopic NodeType = "subtopic"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeSubject, NodeTopic, NodeSubtopic:
		return true
	}
	return false
}

// Position is a node's canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the displayed content of a node.
type NodeData struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Node is a labelled point in a mind map.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// Edge connects two nodes of the same map. Type and Animated are rendering
// hints stored as given.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Type     string `json:"type,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// MindMap is a user-authored document.
type MindMap struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Draft holds the caller-supplied fields of a new mind map.
type Draft struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Nodes   *[]Node `json:"nodes,omitempty"`
	Edges   *[]Edge `json:"edges,omitempty"`
}

// Apply merges p into m and returns the result. m is not modified.
func (p Patch) Apply(m MindMap) MindMap {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Subject != nil {
		m.Subject = *p.Subject
	}
	if p.Nodes != nil {
		m.Nodes = append([]Node{}, (*p.Nodes)...)
	}
	if p.Edges != nil {
		m.Edges = append([]Edge{}, (*p.Edges)...)
	}
	return m
}

// Subject is an entry of the fixed subject catalog.
type Subject struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// Subjects is the catalog every mind map's subject must come from.
var Subjects = []Subject{
	{ID: "math", Name: "Mathematics", Color: "hsl(221, 83%, 53%)", Icon: "📐"},
	{ID: "literature", Name: "Literature", Color: "hsl(271, 81%, 56%)", Icon: "📚"},
	{ID: "english", Name: "English", Color: "hsl(25, 95%, 53%)", Icon: "✍️"},
	{ID: "physics", Name: "Physics", Color: "hsl(0, 84%, 60%)", Icon: "⚛️"},
	{ID: "chemistry", Name: "Chemistry", Color: "hsl(142, 71%, 45%)", Icon: "🧪"},
	{ID: "history", Name: "History", Color: "hsl(45, 93%, 47%)", Icon: "🏛️"},
}

// LookupSubject finds a catalog entry by id.
func LookupSubject(id string) (Subject, bool) {
	for _, s := range Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// SubjectIDs returns the catalog ids in order.
func SubjectIDs() []string {
	ids := make([]string, len(Subjects))
	for i, s := range Subjects {
		ids[i] = s.ID
	}
	return ids
}
