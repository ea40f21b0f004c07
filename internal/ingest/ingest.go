// Package ingest populates the establishment database from the DATASUS
// public datasets.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suspsaude/susp-backend/internal/cnes"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/httpclient"
	"github.com/suspsaude/susp-backend/internal/logging"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
	"golang.org/x/sync/semaphore"
)

// Package-level logger specific to the ingest service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "ingest.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "ingest", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize ingest file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "ingest")
		closeLogger = func() error { return nil }
	}
}

// Dataset source labels used in logs and metrics.
const (
	sourceElasticnes = "elasticnes"
	sourceArchive    = "zip"
	sourceLocalCSV   = "csv"
)

// fetchLogInterval is how many establishment details are fetched between
// progress log lines.
const fetchLogInterval = 500

// Service runs ingestion: it parses a specialized-services dataset, enriches
// each establishment with its open-data document and replaces the database
// contents with the result.
type Service struct {
	ds         datastore.Interface
	client     *cnes.Client
	downloader *httpclient.Client
	settings   *conf.Settings
	metrics    *metrics.IngestMetrics
}

// NewService creates an ingestion service. The open-data client is owned by
// the caller; the download client is owned by the service and released by
// Close.
func NewService(ds datastore.Interface, client *cnes.Client, settings *conf.Settings) *Service {
	return &Service{
		ds:         ds,
		client:     client,
		downloader: httpclient.New(nil),
		settings:   settings,
	}
}

// SetMetrics attaches Prometheus metrics to the service.
func (s *Service) SetMetrics(m *metrics.IngestMetrics) {
	s.metrics = m
}

// Close releases the download client connections and the service logger.
func (s *Service) Close() {
	s.downloader.Close()
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing ingest logger: %v", err)
		}
	}
}

// RunSummary reports what one ingestion run accomplished.
type RunSummary struct {
	RunID          string
	Source         string
	Establishments int
	Services       int
	Records        int
	Skipped        int
	Duration       time.Duration
}

// RunFromCSV ingests a specialized-services export already on disk.
func (s *Service) RunFromCSV(ctx context.Context, path string) (*RunSummary, error) {
	return s.ingestFile(ctx, sourceLocalCSV, path)
}

// RunFromElasticnes downloads the configured elasticnes export and ingests it.
func (s *Service) RunFromElasticnes(ctx context.Context) (*RunSummary, error) {
	path, err := s.fetchElasticnes(ctx)
	if err != nil {
		s.recordRunError(sourceElasticnes)
		return nil, err
	}
	return s.ingestFile(ctx, sourceElasticnes, path)
}

// RunFromArchive downloads the monthly DATASUS archive for year/month,
// extracts the specialized-services table and ingests it.
func (s *Service) RunFromArchive(ctx context.Context, year, month int) (*RunSummary, error) {
	path, err := s.fetchArchive(ctx, year, month)
	if err != nil {
		s.recordRunError(sourceArchive)
		return nil, err
	}
	return s.ingestFile(ctx, sourceArchive, path)
}

func (s *Service) ingestFile(ctx context.Context, source, path string) (*RunSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		s.recordRunError(source)
		return nil, errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer func() {
		_ = f.Close()
	}()

	rows, skipped, err := ParseReader(f)
	if err != nil {
		s.recordRunError(source)
		return nil, err
	}

	return s.run(ctx, source, rows, skipped)
}

// run executes the pipeline over parsed rows: build the service catalog and
// offering records, fetch establishment details, then persist. Saves happen
// only after every fetch finished, so a failing run leaves the previous
// dataset in place.
func (s *Service) run(ctx context.Context, source string, rows []Row, parseSkipped int) (*RunSummary, error) {
	start := time.Now()
	runID := uuid.New().String()
	runLog := logger.With("run_id", runID, "source", source)

	if len(rows) == 0 {
		// An empty dataset would wipe the offering records. Refuse it.
		s.recordRunError(source)
		return nil, errors.Newf("dataset contains no usable rows").
			Component("ingest").
			Category(errors.CategoryIngest).
			Context("source", source).
			Context("rows_skipped", parseSkipped).
			Build()
	}

	runLog.Info("Ingestion run started",
		"rows", len(rows),
		"rows_skipped_parse", parseSkipped)

	if s.metrics != nil && parseSkipped > 0 {
		s.metrics.RecordRowsSkipped(metrics.OmissionMalformedRow, parseSkipped)
	}

	catalog := buildCatalog(rows)
	records := buildRecords(rows)

	infos, fetchSkipped, err := s.fetchEstablishments(ctx, runLog, rows)
	if err != nil {
		s.recordRunError(source)
		return nil, err
	}

	if err := s.ds.SaveMedicalServices(catalog); err != nil {
		s.recordRunError(source)
		return nil, errors.New(err).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Context("entity", "medical_services").
			Build()
	}
	if err := s.ds.SaveEstablishments(infos); err != nil {
		s.recordRunError(source)
		return nil, errors.New(err).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Context("entity", "general_infos").
			Build()
	}
	if err := s.ds.ReplaceServiceRecords(records); err != nil {
		s.recordRunError(source)
		return nil, errors.New(err).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Context("entity", "service_records").
			Build()
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordRowsProcessed("medical_service", len(catalog))
		s.metrics.RecordRowsProcessed("establishment", len(infos))
		s.metrics.RecordRowsProcessed("service_record", len(records))
		s.metrics.RecordRun(source, "success")
		s.metrics.RecordRunDuration(source, duration.Seconds())
	}

	summary := &RunSummary{
		RunID:          runID,
		Source:         source,
		Establishments: len(infos),
		Services:       len(catalog),
		Records:        len(records),
		Skipped:        parseSkipped + fetchSkipped,
		Duration:       duration,
	}

	runLog.Info("Ingestion run complete",
		"establishments", summary.Establishments,
		"services", summary.Services,
		"records", summary.Records,
		"skipped", summary.Skipped,
		"duration_ms", duration.Milliseconds())

	return summary, nil
}

func (s *Service) recordRunError(source string) {
	if s.metrics != nil {
		s.metrics.RecordRun(source, "error")
	}
}

// buildCatalog collects the distinct (service, classification) pairs of the
// dataset, ordered by code for deterministic saves.
func buildCatalog(rows []Row) []datastore.MedicalService {
	seen := make(map[[2]int]datastore.MedicalService)
	for _, row := range rows {
		key := [2]int{row.ServiceCode, row.ClassificationCode}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = datastore.MedicalService{
			Code:           row.ServiceCode,
			ClassCode:      row.ClassificationCode,
			Service:        row.ServiceName,
			Classification: row.ClassificationName,
		}
	}

	catalog := make([]datastore.MedicalService, 0, len(seen))
	for _, svc := range seen {
		catalog = append(catalog, svc)
	}
	sort.Slice(catalog, func(i, j int) bool {
		if catalog[i].Code != catalog[j].Code {
			return catalog[i].Code < catalog[j].Code
		}
		return catalog[i].ClassCode < catalog[j].ClassCode
	})
	return catalog
}

// buildRecords maps every dataset row to one offering record.
func buildRecords(rows []Row) []datastore.ServiceRecord {
	records := make([]datastore.ServiceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, datastore.ServiceRecord{
			CNES:           row.CNES,
			Service:        row.ServiceCode,
			Classification: row.ClassificationCode,
		})
	}
	return records
}

// fetchEstablishments resolves the open-data document for every distinct
// establishment in the dataset, a bounded number at a time. Establishments
// whose document cannot be fetched are skipped with a diagnostic; the rest
// of the run proceeds.
func (s *Service) fetchEstablishments(ctx context.Context, runLog *slog.Logger, rows []Row) ([]datastore.GeneralInfo, int, error) {
	// The registry attributes repeat on every service row of an
	// establishment, so the first row seen is its representative.
	reps := make(map[int]Row)
	order := make([]int, 0)
	for _, row := range rows {
		if _, ok := reps[row.CNES]; ok {
			continue
		}
		reps[row.CNES] = row
		order = append(order, row.CNES)
	}

	workers := s.settings.Ingest.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		infos   = make([]datastore.GeneralInfo, 0, len(order))
		skipped int
	)
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	runLog.Info("Fetching establishment details",
		"establishments", len(order),
		"workers", workers)

	for _, code := range order {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, 0, errors.New(err).
				Component("ingest").
				Category(errors.CategoryCancellation).
				Build()
		}

		row := reps[code]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			detail, err := s.client.GetEstablishment(ctx, row.CNES)
			if err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				runLog.Warn("Establishment detail fetch failed, skipping",
					"cnes", row.CNES,
					"error", err.Error())
				if s.metrics != nil {
					s.metrics.RecordRowSkipped(metrics.OmissionDetailFetchFailed)
				}
				return
			}

			info := buildGeneralInfo(row, detail)
			mu.Lock()
			infos = append(infos, info)
			fetched := len(infos)
			mu.Unlock()

			if s.metrics != nil {
				s.metrics.RecordEstablishmentFetched()
			}
			if fetched%fetchLogInterval == 0 {
				runLog.Info("Establishment details fetched",
					"fetched", fetched,
					"total", len(order))
			}
		}()
	}
	wg.Wait()

	// A cancel arriving during the last in-flight fetches leaves the result
	// incomplete. Abort instead of saving a partial registry.
	if err := ctx.Err(); err != nil {
		return nil, 0, errors.New(err).
			Component("ingest").
			Category(errors.CategoryCancellation).
			Build()
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CNES < infos[j].CNES })
	return infos, skipped, nil
}

// buildGeneralInfo joins the dataset attributes of an establishment with its
// open-data document.
func buildGeneralInfo(row Row, detail *cnes.EstablishmentData) datastore.GeneralInfo {
	info := datastore.GeneralInfo{
		CNES:      row.CNES,
		Name:      optional(row.Name),
		City:      optional(row.City),
		State:     optional(row.State),
		Kind:      optional(row.Kind),
		CNPJ:      detail.CNPJ,
		Address:   detail.Address,
		Number:    detail.Number,
		District:  detail.District,
		Telephone: detail.Telephone,
		Latitude:  detail.Latitude,
		Longitude: detail.Longitude,
		Email:     detail.Email,
		Shift:     detail.Shift,
	}

	if detail.CEP != nil {
		// The open-data API serves the CEP as a number, dropping leading
		// zeros. Restore the 8-digit form.
		cep := fmt.Sprintf("%08d", *detail.CEP)
		info.CEP = &cep
	}

	return info
}

// optional returns nil for empty dataset cells so they store as NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
