// Package settings owns the dashboard settings object and its persistence.
package settings

import (
	_ "time/tzdata"
)

// Business describes the shop printed on reports and alerts.
type Business struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	TaxID   string `json:"taxId"`
}

// Settings is the persisted settings object.
type Settings struct {
	Currency           string   `json:"currency" validate:"oneof=PHP USD"`
	Timezone           string   `json:"timezone" validate:"required"`
	DateFormat         string   `json:"dateFormat" validate:"required"`
	EmailNotifications bool     `json:"emailNotifications"`
	SMSNotifications   bool     `json:"smsNotifications"`
	AlertEmail         string   `json:"alertEmail" validate:"omitempty,email"`
	AlertPhone         string   `json:"alertPhone" validate:"omitempty,e164"`
	Business           Business `json:"businessInfo"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		Currency:           "PHP",
		Timezone:           "Asia/Manila",
		DateFormat:         "MM/dd/yyyy",
		EmailNotifications: true,
		SMSNotifications:   false,
		Business:           Business{Name: "Your Business Name"},
	}
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	Currency           *string   `json:"currency,omitempty"`
	Timezone           *string   `json:"timezone,omitempty"`
	DateFormat         *string   `json:"dateFormat,omitempty"`
	EmailNotifications *bool     `json:"emailNotifications,omitempty"`
	SMSNotifications   *bool     `json:"smsNotifications,omitempty"`
	AlertEmail         *string   `json:"alertEmail,omitempty"`
	AlertPhone         *string   `json:"alertPhone,omitempty"`
	Business           *Business `json:"businessInfo,omitempty"`
}

// Apply merges p into s.
func (p Patch) Apply(s Settings) Settings {
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.DateFormat != nil {
		s.DateFormat = *p.DateFormat
	}
	if p.EmailNotifications != nil {
		s.EmailNotifications = *p.EmailNotifications
	}
	if p.SMSNotifications != nil {
		s.SMSNotifications = *p.SMSNotifications
	}
	if p.AlertEmail != nil {
		s.AlertEmail = *p.AlertEmail
	}
	if p.AlertPhone != nil {
		s.AlertPhone = *p.AlertPhone
	}
	if p.Business != nil {
		s.Business = *p.Business
	}
	return s
}
