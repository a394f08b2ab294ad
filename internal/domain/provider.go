package domain

import "strings"

// Contact is the person responsible for a visit on the provider side.
type Contact struct {
	name  string
	email string
	phone string
}

// NewContact validates contact details.
func NewContact(name, email, phone string) (Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return Contact{}, NewValidationError("contact.name", "required")
	}
	if email == "" {
		return Contact{}, NewValidationError("contact.email", "required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return Contact{}, NewValidationError("contact.email", "invalid email")
	}
	if phone == "" {
		return Contact{}, NewValidationError("contact.phone", "required")
	}
	return Contact{name: name, email: email, phone: phone}, nil
}

func (c Contact) Name() string  { return c.name }
func (c Contact) Email() string { return c.email }
func (c Contact) Phone() string { return c.phone }

// ProviderInfo identifies the external organization booking a visit.
type ProviderInfo struct {
	name          string
	taxID         string
	purchaseOrder string
	contact       Contact
}

// NewProviderInfo validates provider details.
func NewProviderInfo(name, taxID, purchaseOrder string, contact Contact) (ProviderInfo, error) {
	name = strings.TrimSpace(name)
	taxID = strings.TrimSpace(taxID)
	purchaseOrder = strings.TrimSpace(purchaseOrder)
	if name == "" {
		return ProviderInfo{}, NewValidationError("provider.name", "required")
	}
	if taxID == "" {
		return ProviderInfo{}, NewValidationError("provider.tax_id", "required")
	}
	if purchaseOrder == "" {
		return ProviderInfo{}, NewValidationError("provider.purchase_order", "required")
	}
	if contact.email == "" {
		return ProviderInfo{}, NewValidationError("contact", "required")
	}
	return ProviderInfo{name: name, taxID: taxID, purchaseOrder: purchaseOrder, contact: contact}, nil
}

func (p ProviderInfo) Name() string          { return p.name }
func (p ProviderInfo) TaxID() string         { return p.taxID }
func (p ProviderInfo) PurchaseOrder() string { return p.purchaseOrder }
func (p ProviderInfo) Contact() Contact      { return p.contact }

// IsZero reports whether the value was built without the constructor.
func (p ProviderInfo) IsZero() bool { return p.taxID == "" }
