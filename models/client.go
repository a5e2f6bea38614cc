package models

import "gorm.io/gorm"

// Client is the stored row behind the client-records API.
type Client struct {
	gorm.Model
	Name    string `gorm:"not null"`
	Phone   string `gorm:"not null"`
	Email   string `gorm:"not null;unique"`
	Age     int    `gorm:"not null"`
	Gender  string `gorm:"not null;size:1"`
	Address string
	State   string
	City    string
	Zip     string
}

func (c *Client) ToRecord() Record {
	id := int64(c.ID)
	return Record{
		ID:      &id,
		Name:    c.Name,
		Phone:   c.Phone,
		Email:   c.Email,
		Age:     c.Age,
		Gender:  c.Gender,
		Address: c.Address,
		State:   c.State,
		City:    c.City,
		Zip:     c.Zip,
	}
}

// Apply copies the record's fields onto the row. The identifier is left alone.
func (c *Client) Apply(r Record) {
	c.Name = r.Name
	c.Phone = r.Phone
	c.Email = r.Email
	c.Age = r.Age
	c.Gender = r.Gender
	c.Address = r.Address
	c.State = r.State
	c.City = r.City
	c.Zip = r.Zip
}
