// Package form holds the client record form: its field state, the load on
// mount, validation on change and the create/update submission.
package form

import (
	"context"
	"errors"
	"fmt"

	"wellness-step-by-step/client-form/dataservice"
	"wellness-step-by-step/client-form/models"
	"wellness-step-by-step/client-form/validation"
)

const (
	TitleNotice = "Notice"
	TitleError  = "Error"

	MessageCreated = "Client created successfully"
	MessageUpdated = "Client updated successfully"
)

var ErrUnknownField = errors.New("unknown form field")

// Outcome of a submission.
type Outcome int

const (
	Invalid Outcome = iota
	Succeeded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "success"
	case Failed:
		return "error"
	}
	return "invalid"
}

// LoadOutcome of fetching the record on mount.
type LoadOutcome int

const (
	Loaded LoadOutcome = iota
	Empty
	LoadFailed
	// AlreadyMounted is returned by Mount after the first call.
	AlreadyMounted
)

func (o LoadOutcome) String() string {
	switch o {
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case LoadFailed:
		return "error"
	}
	return "skipped"
}

// State is everything one form instance owns. It is plain data so it can be
// kept in a session between requests.
type State struct {
	Mode    models.Mode       `json:"mode"`
	Values  models.Values     `json:"values"`
	Errors  map[string]string `json:"errors,omitempty"`
	Touched map[string]bool   `json:"touched,omitempty"`
	Mounted bool              `json:"mounted"`
	Notice  Notice            `json:"notice"`
	Dialog  Dialog            `json:"dialog"`
}

// ClientForm is one client record form. It is not safe for concurrent use.
type ClientForm struct {
	svc   dataservice.Service
	state *State
}

func New(svc dataservice.Service, mode models.Mode) *ClientForm {
	return &ClientForm{
		svc: svc,
		state: &State{
			Mode:   mode,
			Values: models.EmptyValues(),
		},
	}
}

// Restore wraps previously saved state.
func Restore(svc dataservice.Service, state *State) *ClientForm {
	return &ClientForm{svc: svc, state: state}
}

func (f *ClientForm) State() *State { return f.state }

func (f *ClientForm) Mode() models.Mode { return f.state.Mode }

func (f *ClientForm) Values() models.Values { return f.state.Values }

func (f *ClientForm) Notice() *Notice { return &f.state.Notice }

func (f *ClientForm) Dialog() *Dialog { return &f.state.Dialog }

// SubmitLabel is the text of the submit button.
func (f *ClientForm) SubmitLabel() string {
	if f.state.Mode.IsUpdate() {
		return "Update"
	}
	return "Save"
}

// Mount loads the record the first time the form is shown. Later calls do
// nothing.
func (f *ClientForm) Mount(ctx context.Context) (LoadOutcome, error) {
	if f.state.Mounted {
		return AlreadyMounted, nil
	}
	f.state.Mounted = true
	return f.Load(ctx)
}

// Load fetches the form's record. A 404 leaves the form empty without a
// notice; any other failure opens an error notice and keeps the values.
func (f *ClientForm) Load(ctx context.Context) (LoadOutcome, error) {
	record, err := f.svc.Get(ctx, f.state.Mode.LoadID(), dataservice.Endpoint)
	if err != nil {
		if dataservice.IsNotFound(err) {
			f.reset(models.EmptyValues())
			return Empty, nil
		}
		f.state.Notice.Show(TitleError, errorBody(err))
		return LoadFailed, err
	}
	f.reset(models.RecordValues(record))
	return Loaded, nil
}

// Change sets one field and revalidates the form.
func (f *ClientForm) Change(field, value string) (map[string]string, error) {
	if field == models.FieldGender {
		value = validation.NormalizeGender(value)
	}
	if !f.state.Values.Set(field, value) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	f.touch(field)
	f.state.Errors = validation.Validate(f.state.Values)
	return f.state.Errors, nil
}

// SetValues replaces every field, as a posted form does.
func (f *ClientForm) SetValues(values models.Values) {
	values.Gender = validation.NormalizeGender(values.Gender)
	f.state.Values = values
	f.state.Errors = validation.Validate(values)
}

// Submit validates the form and, if it passes, sends exactly one create or
// update request depending on the form's mode.
func (f *ClientForm) Submit(ctx context.Context) (Outcome, error) {
	f.state.Values.Gender = validation.NormalizeGender(f.state.Values.Gender)
	for _, field := range models.Fields {
		f.touch(field)
	}
	f.state.Errors = validation.Validate(f.state.Values)
	if len(f.state.Errors) > 0 {
		return Invalid, nil
	}

	record, err := f.state.Values.Record(f.state.Mode)
	if err != nil {
		return Invalid, fmt.Errorf("failed to build client record: %w", err)
	}

	message := MessageCreated
	if f.state.Mode.IsUpdate() {
		message = MessageUpdated
		_, err = f.svc.Update(ctx, dataservice.Endpoint, record)
	} else {
		_, err = f.svc.Create(ctx, dataservice.Endpoint, record)
	}
	if err != nil {
		f.state.Notice.Show(TitleError, errorBody(err))
		return Failed, err
	}

	f.state.Notice.Show(TitleNotice, message)
	f.reset(models.EmptyValues())
	return Succeeded, nil
}

// VisibleErrors returns the messages for fields the user has touched.
func (f *ClientForm) VisibleErrors() map[string]string {
	visible := make(map[string]string)
	for field, msg := range f.state.Errors {
		if f.state.Touched[field] {
			visible[field] = msg
		}
	}
	return visible
}

func (f *ClientForm) reset(values models.Values) {
	f.state.Values = values
	f.state.Touched = nil
	f.state.Errors = validation.Validate(values)
}

func (f *ClientForm) touch(field string) {
	if f.state.Touched == nil {
		f.state.Touched = make(map[string]bool)
	}
	f.state.Touched[field] = true
}

// errorBody formats a failed call for the notice. Calls that never got a
// response show code 0.
func errorBody(err error) string {
	var se *dataservice.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("Code: %d Message: %s", se.Code, se.Text)
	}
	return "Code: 0 Message: Network Error"
}
