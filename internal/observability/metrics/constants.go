// Package metrics provides constants used across metric definitions.
package metrics

// Histogram bucket configuration constants.
// These define the base values and factors for exponential bucket generation.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart1s is the starting bucket for 1s histograms (1s to ~9 hours range).
	BucketStart1s = 1.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)

// Omission reason label values recorded when a row is skipped instead of
// failing a request or an ingestion run.
const (
	// OmissionMissingEstablishment marks service records pointing at a CNES
	// absent from the registry.
	OmissionMissingEstablishment = "missing_establishment"
	// OmissionMissingCoordinates marks establishments without usable
	// latitude or longitude.
	OmissionMissingCoordinates = "missing_coordinates"
	// OmissionDanglingCatalogRef marks service records whose (service,
	// classification) pair is absent from the catalog.
	OmissionDanglingCatalogRef = "dangling_catalog_ref"
	// OmissionMalformedRow marks dataset rows that could not be parsed.
	OmissionMalformedRow = "malformed_row"
	// OmissionDetailFetchFailed marks establishments whose open-data
	// document could not be fetched.
	OmissionDetailFetchFailed = "detail_fetch_failed"
)
