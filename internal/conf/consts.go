// conf/consts.go hard coded constants
package conf

const (
	// MaxUnits caps the number of establishments returned by a nearest-unit lookup.
	MaxUnits = 20

	// EarliestDatasetYear is the first year the CNES EstatisticasServlet publishes.
	EarliestDatasetYear = 2017

	// DefaultCNESBaseURL is the DATASUS open-data establishment endpoint.
	DefaultCNESBaseURL = "https://apidadosabertos.saude.gov.br/cnes/estabelecimentos"

	// DefaultZIPBaseURL is the CNES statistics servlet serving monthly dataset archives.
	DefaultZIPBaseURL = "https://cnes.datasus.gov.br/EstatisticasServlet"
)
