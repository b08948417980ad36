package context

// DefaultContextHeader opens every lesson context sent with a doubt. It uses
// Go text/template syntax with Lesson fields: .Topic, .Title
const DefaultContextHeader = `{{- if .Topic}}Topic: {{.Topic}}
{{end -}}
{{- if .Title}}Lesson: {{.Title}}
{{end}}
`

// TruncationMarker stands in for the beginning of a lesson that did not fit.
const TruncationMarker = "[earlier part of the lesson omitted]"
