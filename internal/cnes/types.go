// Package cnes provides a client for the DATASUS open-data establishments API
package cnes

import "time"

// EstablishmentData represents one establishment as served by the open-data
// API. Nullable upstream fields are pointers; the numeric CEP loses its
// leading zero upstream and is restored during ingestion.
type EstablishmentData struct {
	CNES      int      `json:"codigo_cnes"`
	CEP       *int     `json:"codigo_cep_estabelecimento"`
	CNPJ      *string  `json:"numero_cnpj"`
	Address   *string  `json:"endereco_estabelecimento"`
	Number    *string  `json:"numero_estabelecimento"`
	District  *string  `json:"bairro_estabelecimento"`
	Telephone *string  `json:"numero_telefone_estabelecimento"`
	Latitude  *float64 `json:"latitude_estabelecimento_decimo_grau"`
	Longitude *float64 `json:"longitude_estabelecimento_decimo_grau"`
	Email     *string  `json:"endereco_email_estabelecimento"`
	Shift     *string  `json:"descricao_turno_atendimento"`
}

// Config holds configuration for the open-data client
type Config struct {
	BaseURL  string        `json:"base_url"`
	Timeout  time.Duration `json:"timeout"`
	CacheTTL time.Duration `json:"cache_ttl"`
	// RateLimit is the sustained request rate against the API in requests
	// per second. Ingestion runs fetch one document per establishment, so
	// this is what keeps bulk runs polite.
	RateLimit float64 `json:"rate_limit"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://apidadosabertos.saude.gov.br/cnes/estabelecimentos",
		Timeout:   15 * time.Second,
		CacheTTL:  24 * time.Hour, // registry data changes monthly at most
		RateLimit: 5,
	}
}

// Stats is a point-in-time snapshot of client counters.
type Stats struct {
	APICalls    int64
	APIErrors   int64
	CacheHits   int64
	CacheMisses int64
}
