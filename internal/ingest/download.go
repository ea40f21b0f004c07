// download.go: retrieval of DATASUS datasets ahead of an ingestion run
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/errors"
)

const (
	// archiveMemberPrefix names the one table extracted from the monthly
	// archives. Member names carry a YYYYMM suffix, so matching is by prefix.
	archiveMemberPrefix = "tbServicoEspecializado"

	// maxMemberSize caps extraction so a corrupt archive cannot fill the disk.
	maxMemberSize = 1 << 30

	// downloadTimeout bounds a whole dataset download. Monthly archives run
	// to hundreds of megabytes.
	downloadTimeout = 15 * time.Minute
)

// DatasetURL builds the EstatisticasServlet URL for one monthly archive.
// DATASUS publishes archives from 2017 onwards.
func DatasetURL(baseURL string, year, month int) (string, error) {
	if year < conf.EarliestDatasetYear || year > time.Now().Year() {
		return "", errors.Newf("invalid year %d: archives exist from %d to the current year", year, conf.EarliestDatasetYear).
			Component("ingest").
			Category(errors.CategoryValidation).
			Context("year", year).
			Build()
	}
	if month < 1 || month > 12 {
		return "", errors.Newf("invalid month %d: want 1 to 12", month).
			Component("ingest").
			Category(errors.CategoryValidation).
			Context("month", month).
			Build()
	}
	return fmt.Sprintf("%s?path=BASE_DE_DADOS_CNES_%d%02d.ZIP", baseURL, year, month), nil
}

// fetchArchive downloads the monthly archive for year/month into the data
// directory and returns the path of the extracted specialized-services CSV.
func (s *Service) fetchArchive(ctx context.Context, year, month int) (string, error) {
	url, err := DatasetURL(s.settings.Ingest.CNESBaseURL, year, month)
	if err != nil {
		return "", err
	}

	dataDir, err := s.ensureDataDir()
	if err != nil {
		return "", err
	}

	zipPath := filepath.Join(dataDir, fmt.Sprintf("BASE_DE_DADOS_CNES_%d%02d.zip", year, month))
	if err := s.downloadFile(ctx, url, zipPath); err != nil {
		return "", err
	}

	csvPath, err := extractServiceTable(zipPath, dataDir)
	if err != nil {
		return "", err
	}

	logger.Info("Monthly archive fetched", "zip", zipPath, "csv", csvPath)
	return csvPath, nil
}

// fetchElasticnes downloads the configured elasticnes export into the data
// directory and returns its path.
func (s *Service) fetchElasticnes(ctx context.Context) (string, error) {
	url := s.settings.Ingest.ElasticnesURL
	if url == "" {
		return "", errors.Newf("no elasticnes export URL configured").
			Component("ingest").
			Category(errors.CategoryConfiguration).
			Build()
	}

	dataDir, err := s.ensureDataDir()
	if err != nil {
		return "", err
	}

	csvPath := filepath.Join(dataDir, "elasticnes.csv")
	if err := s.downloadFile(ctx, url, csvPath); err != nil {
		return "", err
	}

	logger.Info("Elasticnes export fetched", "csv", csvPath)
	return csvPath, nil
}

func (s *Service) ensureDataDir() (string, error) {
	dataDir := s.settings.Ingest.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", dataDir).
			Build()
	}
	return dataDir, nil
}

// downloadFile streams url into dest. Partial or empty files are removed so
// a failed download never masquerades as a dataset.
func (s *Service) downloadFile(ctx context.Context, url, dest string) error {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	resp, err := s.downloader.Get(dlCtx, url)
	if err != nil {
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("dataset download failed (status %d)", resp.StatusCode).
			Component("ingest").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Build()
	}

	f, err := os.Create(dest)
	if err != nil {
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", dest).
			Build()
	}

	written, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", dest).
			Build()
	}
	if written == 0 {
		_ = os.Remove(dest)
		return errors.Newf("dataset download was empty").
			Component("ingest").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}

	logger.Debug("Downloaded dataset", "url", url, "path", dest, "bytes", written)
	return nil
}

// extractServiceTable pulls the specialized-services CSV out of a monthly
// archive and returns the path it was written to.
func extractServiceTable(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("path", zipPath).
			Build()
	}
	defer func() {
		_ = r.Close()
	}()

	for _, f := range r.File {
		name := filepath.Base(f.Name)
		if !strings.HasPrefix(name, archiveMemberPrefix) || !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", errors.New(err).
				Component("ingest").
				Category(errors.CategoryFileParsing).
				Context("member", f.Name).
				Build()
		}

		dest := filepath.Join(destDir, name)
		out, err := os.Create(dest)
		if err != nil {
			_ = rc.Close()
			return "", errors.New(err).
				Component("ingest").
				Category(errors.CategoryFileIO).
				Context("path", dest).
				Build()
		}

		written, err := io.Copy(out, io.LimitReader(rc, maxMemberSize))
		_ = rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dest)
			return "", errors.New(err).
				Component("ingest").
				Category(errors.CategoryFileIO).
				Context("path", dest).
				Build()
		}
		if written == maxMemberSize {
			_ = os.Remove(dest)
			return "", errors.Newf("archive member %s exceeds the extraction limit", f.Name).
				Component("ingest").
				Category(errors.CategoryLimit).
				Context("path", zipPath).
				Build()
		}

		return dest, nil
	}

	return "", errors.Newf("no %s table in archive", archiveMemberPrefix).
		Component("ingest").
		Category(errors.CategoryNotFound).
		Context("path", zipPath).
		Build()
}

// CleanDataDir removes every downloaded artifact from the data directory.
func (s *Service) CleanDataDir() error {
	dataDir := s.settings.Ingest.DataDir

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", dataDir).
			Build()
	}

	for _, entry := range entries {
		path := filepath.Join(dataDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return errors.New(err).
				Component("ingest").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	logger.Info("Data directory cleaned", "path", dataDir)
	return nil
}
