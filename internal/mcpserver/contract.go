package mcpserver

// MindMapFormat describes the document shape LLM consumers must produce when
// creating or updating mind maps.
const MindMapFormat = `# Mind Map Format

A mind map is a titled graph of nodes and edges filed under one subject.

## Fields

` + "```" + `json
{
  "title": "Cell Biology",          // REQUIRED, 1-200 characters (not bytes)
  "subject": "chemistry",           // REQUIRED, one of the subject catalog ids
  "nodes": [
    {"id": "1", "type": "subject", "data": {"label": "Cell Biology"}, "position": {"x": 400, "y": 300}},
    {"id": "2", "type": "topic",
     "data": {"label": "Organelles", "description": "Membrane-bound parts", "color": "#f59e0b"},
     "position": {"x": 200, "y": 150}}
  ],
  "edges": [
    {"id": "e1-2", "source": "1", "target": "2"}
  ]
}
` + "```" + `

## Rules

1. **Node types** are ` + "`subject`" + `, ` + "`topic`" + ` or ` + "`subtopic`" + `. A map usually has one subject node at its center.
2. **Node ids** are unique within the map. Every node needs ` + "`data.label`" + `; ` + "`data.description`" + ` and ` + "`data.color`" + ` are optional.
3. **Edges** connect existing node ids (` + "`source`" + ` and ` + "`target`" + `). By convention edge ids read ` + "`e<source>-<target>`" + `.
4. **Subjects** come from the ` + "`mindatlas://subjects`" + ` resource or the ` + "`list_subjects`" + ` tool.
5. **Updates** merge: omitted fields keep their stored values. Pass the ` + "`etag`" + ` from ` + "`get_mindmap`" + ` to fail on concurrent edits.
6. ` + "`id`" + `, ` + "`createdAt`" + ` and ` + "`updatedAt`" + ` are assigned by the server.
`
