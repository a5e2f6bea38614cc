package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrAgeNotNumber = errors.New("age is not a number")

// ParseAge reads the age field as a number, ignoring surrounding spaces.
func ParseAge(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) {
		return 0, ErrAgeNotNumber
	}
	return n, nil
}

// Record is the client entity as it travels to and from the API.
// ID is only sent on update.
type Record struct {
	ID      *int64 `json:"id,omitempty"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
	Address string `json:"address"`
	State   string `json:"state"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// Values holds the form fields as the user typed them.
type Values struct {
	Name    string `json:"name" form:"name"`
	Phone   string `json:"phone" form:"phone"`
	Email   string `json:"email" form:"email"`
	Age     string `json:"age" form:"age"`
	Gender  string `json:"gender" form:"gender"`
	Address string `json:"address" form:"address"`
	State   string `json:"state" form:"state"`
	City    string `json:"city" form:"city"`
	Zip     string `json:"zip" form:"zip"`
}

// Field names in display order.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldAge     = "age"
	FieldGender  = "gender"
	FieldAddress = "address"
	FieldState   = "state"
	FieldCity    = "city"
	FieldZip     = "zip"
)

var Fields = []string{
	FieldName, FieldPhone, FieldEmail, FieldGender, FieldAge,
	FieldAddress, FieldState, FieldCity, FieldZip,
}

func EmptyValues() Values {
	return Values{}
}

// Get returns the value of the named field and whether the field exists.
func (v Values) Get(field string) (string, bool) {
	switch field {
	case FieldName:
		return v.Name, true
	case FieldPhone:
		return v.Phone, true
	case FieldEmail:
		return v.Email, true
	case FieldAge:
		return v.Age, true
	case FieldGender:
		return v.Gender, true
	case FieldAddress:
		return v.Address, true
	case FieldState:
		return v.State, true
	case FieldCity:
		return v.City, true
	case FieldZip:
		return v.Zip, true
	}
	return "", false
}

// Set assigns the named field. It reports false for unknown fields.
func (v *Values) Set(field, value string) bool {
	switch field {
	case FieldName:
		v.Name = value
	case FieldPhone:
		v.Phone = value
	case FieldEmail:
		v.Email = value
	case FieldAge:
		v.Age = value
	case FieldGender:
		v.Gender = value
	case FieldAddress:
		v.Address = value
	case FieldState:
		v.State = value
	case FieldCity:
		v.City = value
	case FieldZip:
		v.Zip = value
	default:
		return false
	}
	return true
}

// Record converts validated values into the wire entity for the given mode.
// Age must already be a valid integer.
func (v Values) Record(mode Mode) (Record, error) {
	age, err := ParseAge(v.Age)
	if err != nil {
		return Record{}, err
	}
	if age != math.Trunc(age) {
		return Record{}, fmt.Errorf("age %q is not a whole number", v.Age)
	}
	r := Record{
		Name:    v.Name,
		Phone:   v.Phone,
		Email:   v.Email,
		Age:     int(age),
		Gender:  strings.ToUpper(v.Gender),
		Address: v.Address,
		State:   v.State,
		City:    v.City,
		Zip:     v.Zip,
	}
	if id, ok := mode.ID(); ok {
		r.ID = &id
	}
	return r, nil
}

// RecordValues renders a loaded record back into text fields.
func RecordValues(r Record) Values {
	v := Values{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Gender:  r.Gender,
		Address: r.Address,
		State:   r.State,
		City:    r.City,
		Zip:     r.Zip,
	}
	if r.Age != 0 {
		v.Age = strconv.Itoa(r.Age)
	}
	return v
}
