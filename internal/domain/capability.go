package domain

// Capability permiso puntual exigido por una transición de workflow.
// Los workflows no consultan roles: reciben el conjunto de capacidades del actor.
type Capability string

const (
	CapGRNVerify        Capability = "grn:verify"
	CapGRNComplete      Capability = "grn:complete"
	CapTransferApprove  Capability = "transfer:approve"
	CapTransferDispatch Capability = "transfer:dispatch"
	CapTransferReceive  Capability = "transfer:receive"
	CapScanOverride     Capability = "scan:override"
)

// CapabilitySet conjunto de capacidades de un actor.
type CapabilitySet map[Capability]struct{}

// Has indica si el conjunto incluye la capacidad.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// NewCapabilitySet construye un conjunto a partir de capacidades sueltas.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// CapabilitiesForRole mapea el rol del operador a sus capacidades.
// La creación/edición de documentos no exige capacidad: el ciclo de vida
// (siempre nace en DRAFT/REQUESTED) no se salta por rol.
func CapabilitiesForRole(role string) CapabilitySet {
	switch role {
	case "manager":
		return NewCapabilitySet(
			CapGRNVerify, CapGRNComplete,
			CapTransferApprove, CapTransferDispatch, CapTransferReceive,
			CapScanOverride,
		)
	case "cashier":
		return NewCapabilitySet(CapTransferDispatch, CapTransferReceive)
	default:
		return NewCapabilitySet()
	}
}

// Actor identifica a quien ejecuta una transición, con su sucursal y capacidades.
type Actor struct {
	UserID   string
	BranchID string
	Role     string
	Caps     CapabilitySet
}

// Can indica si el actor posee la capacidad.
func (a Actor) Can(c Capability) bool { return a.Caps.Has(c) }
