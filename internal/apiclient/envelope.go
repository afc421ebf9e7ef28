package apiclient

import "encoding/json"

// Envelope is the backend's success wrapper.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Meta is pagination metadata. The backend is not consistent about key
// names, so decoding accepts limit/per_page and totalItems/total.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Meta) UnmarshalJSON(b []byte) error {
	var aux struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"totalItems"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	m.Page = aux.Page
	m.Limit = aux.Limit
	if m.Limit == 0 {
		m.Limit = aux.PerPage
	}
	m.TotalItems = aux.TotalItems
	if m.TotalItems == 0 {
		m.TotalItems = aux.Total
	}
	m.TotalPages = aux.TotalPages
	if m.TotalPages == 0 && m.Limit > 0 {
		m.TotalPages = (m.TotalItems + m.Limit - 1) / m.Limit
	}
	return nil
}
