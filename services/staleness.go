// services/staleness.go
package services

import (
	"fmt"
	"strings"

	"github.com/kyipho/wikilynx/models"
)

// EvaluateStaleness flags every catalog table whose published date is newer
// than its recorded date. Both maps must cover the whole catalog; extra
// registry rows are ignored.
func EvaluateStaleness(catalog *models.Catalog, source, registry map[string]models.RefreshDate) (models.StalenessFlags, error) {
	var missingSource, missingRegistry []string
	for _, name := range catalog.Names() {
		if _, ok := source[name]; !ok {
			missingSource = append(missingSource, name)
		}
		if _, ok := registry[name]; !ok {
			missingRegistry = append(missingRegistry, name)
		}
	}
	if len(missingSource) > 0 || len(missingRegistry) > 0 {
		var parts []string
		if len(missingSource) > 0 {
			parts = append(parts, "no source date for "+strings.Join(missingSource, ", "))
		}
		if len(missingRegistry) > 0 {
			parts = append(parts, "no registry record for "+strings.Join(missingRegistry, ", "))
		}
		return nil, models.NewRefreshError(models.ErrIncompleteData, "", fmt.Errorf("%s", strings.Join(parts, "; ")))
	}

	flags := make(models.StalenessFlags, len(source))
	for _, name := range catalog.Names() {
		flags[name] = source[name].After(registry[name])
	}
	return flags, nil
}

// StatusReport lines up dates and flags per table in catalog order.
func StatusReport(catalog *models.Catalog, source, registry map[string]models.RefreshDate, flags models.StalenessFlags) []models.TableStatus {
	out := make([]models.TableStatus, 0, len(catalog.Names()))
	for _, td := range catalog.Tables() {
		out = append(out, models.TableStatus{
			Table:        td.Name,
			FileName:     td.FileName,
			SourceDate:   source[td.Name],
			RegistryDate: registry[td.Name],
			NeedsUpdate:  flags[td.Name],
		})
	}
	return out
}
