package handlers

import (
	"embed"
	"html/template"

	"wellness-step-by-step/client-form/form"
	"wellness-step-by-step/client-form/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type fieldView struct {
	Name  string
	Label string
	Value string
	Error string
	Width int
}

type formView struct {
	Title       string
	SubmitLabel string
	Fields      []fieldView
	Notice      form.Notice
	Dialog      form.Dialog
}

var fieldLayout = map[string]struct {
	label string
	width int
}{
	models.FieldName:    {"Client Name", 6},
	models.FieldPhone:   {"Phone Number", 6},
	models.FieldEmail:   {"Email Address", 6},
	models.FieldGender:  {"Gender", 3},
	models.FieldAge:     {"Age", 3},
	models.FieldAddress: {"Address", 12},
	models.FieldState:   {"State", 4},
	models.FieldCity:    {"City", 4},
	models.FieldZip:     {"Zip", 4},
}

func newFormView(f *form.ClientForm) formView {
	title := "New client"
	if f.Mode().IsUpdate() {
		title = "Edit client"
	}

	errs := f.VisibleErrors()
	values := f.Values()
	fields := make([]fieldView, 0, len(models.Fields))
	for _, name := range models.Fields {
		value, _ := values.Get(name)
		layout := fieldLayout[name]
		fields = append(fields, fieldView{
			Name:  name,
			Label: layout.label,
			Value: value,
			Error: errs[name],
			Width: layout.width,
		})
	}

	return formView{
		Title:       title,
		SubmitLabel: f.SubmitLabel(),
		Fields:      fields,
		Notice:      *f.Notice(),
		Dialog:      *f.Dialog(),
	}
}
