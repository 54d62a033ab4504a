package metrics

import "github.com/ukydev/proworkshop/internal/models"

// Names maps record ids to display names for resolving references.
type Names map[int64]string

// AssetNames indexes asset names by id.
func AssetNames(assets []models.Asset) Names {
	names := make(Names, len(assets))
	for _, a := range assets {
		names[a.ID] = a.Name
	}
	return names
}

// TechnicianNames indexes technician names by id.
func TechnicianNames(technicians []models.Technician) Names {
	names := make(Names, len(technicians))
	for _, t := range technicians {
		names[t.ID] = t.Name
	}
	return names
}

// Resolve returns the name for ref, or NoData when ref is unset or dangling.
func (n Names) Resolve(ref *int64) string {
	if ref == nil {
		return NoData
	}
	name, ok := n[*ref]
	if !ok || name == "" {
		return NoData
	}
	return name
}
