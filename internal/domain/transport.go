package domain

import "strings"

// TransportKind discriminates the Transport variants.
type TransportKind string

const (
	TransportCarrier TransportKind = "CARRIER"
	TransportPrivate TransportKind = "PRIVATE"
)

// CarrierDetails describes goods brought by a carrier company.
type CarrierDetails struct {
	Name          string
	WaybillNumber string
}

// PrivateDetails describes goods brought in the provider's own vehicle.
type PrivateDetails struct {
	DriverName   string
	DriverID     string
	VehiclePlate string
}

// HelperPerson accompanies the driver.
type HelperPerson struct {
	Name string
	ID   string
}

// Transport carries exactly one of Carrier or Private, selected by Kind.
type Transport struct {
	Kind    TransportKind
	Carrier *CarrierDetails
	Private *PrivateDetails
	Helper  *HelperPerson
}

// NewCarrierTransport builds a carrier transport.
func NewCarrierTransport(name, waybill string, helper *HelperPerson) (Transport, error) {
	t := Transport{
		Kind: TransportCarrier,
		Carrier: &CarrierDetails{
			Name:          strings.TrimSpace(name),
			WaybillNumber: strings.TrimSpace(waybill),
		},
		Helper: trimHelper(helper),
	}
	if err := t.Validate(); err != nil {
		return Transport{}, err
	}
	return t, nil
}

// NewPrivateTransport builds a private-vehicle transport.
func NewPrivateTransport(driverName, driverID, plate string, helper *HelperPerson) (Transport, error) {
	t := Transport{
		Kind: TransportPrivate,
		Private: &PrivateDetails{
			DriverName:   strings.TrimSpace(driverName),
			DriverID:     strings.TrimSpace(driverID),
			VehiclePlate: strings.TrimSpace(plate),
		},
		Helper: trimHelper(helper),
	}
	if err := t.Validate(); err != nil {
		return Transport{}, err
	}
	return t, nil
}

// Validate checks the payload required by the variant.
func (t Transport) Validate() error {
	switch t.Kind {
	case TransportCarrier:
		if t.Carrier == nil || t.Private != nil {
			return NewValidationError("transport", "carrier details required")
		}
		if isBlank(t.Carrier.Name) {
			return NewValidationError("transport.carrier_name", "required")
		}
		if isBlank(t.Carrier.WaybillNumber) {
			return NewValidationError("transport.waybill_number", "required")
		}
	case TransportPrivate:
		if t.Private == nil || t.Carrier != nil {
			return NewValidationError("transport", "private details required")
		}
		if isBlank(t.Private.DriverName) {
			return NewValidationError("transport.driver_name", "required")
		}
		if isBlank(t.Private.DriverID) {
			return NewValidationError("transport.driver_id", "required")
		}
		if isBlank(t.Private.VehiclePlate) {
			return NewValidationError("transport.vehicle_plate", "required")
		}
	default:
		return NewValidationError("transport.kind", "unknown transport kind")
	}
	if t.Helper != nil {
		if isBlank(t.Helper.Name) {
			return NewValidationError("transport.helper_name", "required")
		}
		if isBlank(t.Helper.ID) {
			return NewValidationError("transport.helper_id", "required")
		}
	}
	return nil
}

// HasHelper reports whether a helper accompanies the driver.
func (t Transport) HasHelper() bool { return t.Helper != nil }

func trimHelper(h *HelperPerson) *HelperPerson {
	if h == nil {
		return nil
	}
	return &HelperPerson{Name: strings.TrimSpace(h.Name), ID: strings.TrimSpace(h.ID)}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
