package locator

import (
	"context"

	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
)

// ListExpertise returns every service/classification pair in the catalog,
// ordered by code. The classification name is the label users search by.
func (s *Service) ListExpertise(ctx context.Context) ([]ExpertiseItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	services, err := s.ds.GetAllMedicalServices()
	if err != nil {
		return nil, errors.New(err).
			Component("locator").
			Category(errors.CategoryDatabase).
			Context("operation", "list_expertise").
			Build()
	}

	items := make([]ExpertiseItem, 0, len(services))
	for i := range services {
		items = append(items, ExpertiseItem{
			ID:   [2]int{services[i].Code, services[i].ClassCode},
			Name: services[i].Classification,
		})
	}

	if s.metrics != nil {
		s.metrics.RecordExpertiseListing()
	}
	return items, nil
}

// AggregateServices groups the classification names offered by an
// establishment under their service names. Records referencing catalog
// entries that do not exist are skipped with a diagnostic.
func (s *Service) AggregateServices(ctx context.Context, cnes int) (map[string][]string, error) {
	records, err := s.ds.GetServiceRecords(cnes)
	if err != nil {
		return nil, errors.New(err).
			Component("locator").
			Category(errors.CategoryDatabase).
			Context("operation", "aggregate_services").
			Context("cnes", cnes).
			Build()
	}

	services := make(map[string][]string)
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := &records[i]
		entry, err := s.ds.GetMedicalService(record.Service, record.Classification)
		if err != nil {
			if errors.IsNotFound(err) {
				locatorLogger.Warn("service record references unknown catalog entry",
					"cnes", cnes,
					"service", record.Service,
					"classification", record.Classification)
				s.recordOmission(metrics.OmissionDanglingCatalogRef)
				continue
			}
			return nil, err
		}
		services[entry.Service] = append(services[entry.Service], entry.Classification)
	}
	return services, nil
}

// GetEstablishmentDetails returns the stored general information for one
// establishment. Callers distinguish a missing establishment with
// errors.IsNotFound.
func (s *Service) GetEstablishmentDetails(ctx context.Context, cnes int) (*datastore.GeneralInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	est, err := s.ds.GetEstablishment(cnes)
	if err != nil {
		status := statusError
		if errors.IsNotFound(err) {
			status = statusNotFound
		}
		if s.metrics != nil {
			s.metrics.RecordDetailRequest(status)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDetailRequest(statusSuccess)
	}
	return est, nil
}
