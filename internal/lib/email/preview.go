package email

// PreviewData holds sample data for every template, keyed by template
// name, for local previews and render tests.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"UserName":  "John",
		"UserEmail": "john@example.com",
	},
}
