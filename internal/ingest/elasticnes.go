// elasticnes.go: parsing of the DATASUS specialized-services CSV exports
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/suspsaude/susp-backend/internal/errors"
	"golang.org/x/text/encoding/charmap"
)

// Column headers of the specialized-services export. The elasticnes portal
// and the monthly DATASUS archives ship the same table under these names.
const (
	colCNES    = "CNES"
	colName    = "NOME FANTASIA"
	colCity    = "MUNICÍPIO"
	colState   = "UF"
	colKind    = "TIPO NOVO DO ESTABELECIMENTO"
	colService = "SERVIÇO"
	colClass   = "SERVIÇO CLASSIFICAÇÃO"
)

// sniffSize is how much of the input is inspected to pick encoding and
// delimiter before CSV parsing starts.
const sniffSize = 4096

// Row is one line of the specialized-services export: an establishment
// offering one classified service.
type Row struct {
	CNES               int
	Name               string
	City               string
	State              string
	Kind               string
	ServiceCode        int
	ServiceName        string
	ClassificationCode int
	ClassificationName string
}

// ParseServiceCell splits a "121 - MAMOGRAFIA" style cell into its numeric
// code and display name. Only the first hyphen separates, so hyphenated
// names survive intact.
func ParseServiceCell(cell string) (code int, name string, err error) {
	codePart, namePart, found := strings.Cut(cell, "-")
	if !found {
		return 0, "", errors.Newf("service cell %q has no code separator", cell).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	}

	code, convErr := strconv.Atoi(strings.TrimSpace(codePart))
	if convErr != nil {
		return 0, "", errors.Newf("service cell %q has a non-numeric code", cell).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	}

	return code, strings.TrimSpace(namePart), nil
}

// ParseReader reads a specialized-services export and returns its usable
// rows. Encoding (UTF-8 or Latin-1) and delimiter (comma or semicolon) are
// detected from the first bytes. Malformed rows are skipped with a
// diagnostic and counted rather than failing the whole dataset.
func ParseReader(r io.Reader) (rows []Row, skipped int, err error) {
	br := bufio.NewReaderSize(r, sniffSize)
	sample, _ := br.Peek(sniffSize)

	var decoded io.Reader = br
	if !validUTF8Sample(sample) {
		// Older DATASUS archives are Latin-1 encoded.
		decoded = charmap.ISO8859_1.NewDecoder().Reader(br)
	}

	cr := csv.NewReader(decoded)
	cr.Comma = detectDelimiter(sample)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("stage", "header").
			Build()
	}

	idx, err := headerIndex(header)
	if err != nil {
		return nil, 0, err
	}

	for {
		record, readErr := cr.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			skipped++
			logger.Warn("Skipping unreadable CSV line", "error", readErr.Error())
			continue
		}

		row, rowErr := parseRow(record, idx)
		if rowErr != nil {
			skipped++
			logger.Warn("Skipping malformed row", "error", rowErr.Error())
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

// columnIndex holds the position of each required column in the header.
type columnIndex struct {
	cnes    int
	name    int
	city    int
	state   int
	kind    int
	service int
	class   int
}

func (idx columnIndex) maxIndex() int {
	maxIdx := idx.cnes
	for _, i := range []int{idx.name, idx.city, idx.state, idx.kind, idx.service, idx.class} {
		if i > maxIdx {
			maxIdx = i
		}
	}
	return maxIdx
}

// headerIndex maps the required columns to their positions. Column order
// varies between export revisions, so positions are never assumed.
func headerIndex(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		pos[h] = i
	}

	var idx columnIndex
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{colCNES, &idx.cnes},
		{colName, &idx.name},
		{colCity, &idx.city},
		{colState, &idx.state},
		{colKind, &idx.kind},
		{colService, &idx.service},
		{colClass, &idx.class},
	} {
		i, ok := pos[col.name]
		if !ok {
			return columnIndex{}, errors.Newf("dataset is missing column %q", col.name).
				Component("ingest").
				Category(errors.CategoryFileParsing).
				Build()
		}
		*col.dst = i
	}

	return idx, nil
}

func parseRow(record []string, idx columnIndex) (Row, error) {
	if len(record) <= idx.maxIndex() {
		return Row{}, errors.Newf("row has %d fields, want at least %d", len(record), idx.maxIndex()+1).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	}

	cnesCode, err := strconv.Atoi(strings.TrimSpace(record[idx.cnes]))
	if err != nil {
		return Row{}, errors.Newf("row has a non-numeric CNES %q", record[idx.cnes]).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	}

	svcCode, svcName, err := ParseServiceCell(record[idx.service])
	if err != nil {
		return Row{}, err
	}
	clsCode, clsName, err := ParseServiceCell(record[idx.class])
	if err != nil {
		return Row{}, err
	}

	return Row{
		CNES:               cnesCode,
		Name:               strings.TrimSpace(record[idx.name]),
		City:               strings.TrimSpace(record[idx.city]),
		State:              strings.TrimSpace(record[idx.state]),
		Kind:               strings.TrimSpace(record[idx.kind]),
		ServiceCode:        svcCode,
		ServiceName:        svcName,
		ClassificationCode: clsCode,
		ClassificationName: clsName,
	}, nil
}

// validUTF8Sample reports whether the sample decodes as UTF-8. The sample
// may end mid-rune, so up to three trailing bytes are ignored.
func validUTF8Sample(sample []byte) bool {
	for i := 0; i < 4; i++ {
		if utf8.Valid(sample) {
			return true
		}
		if len(sample) == 0 {
			break
		}
		sample = sample[:len(sample)-1]
	}
	return false
}

// detectDelimiter picks the field separator from the header line. The
// monthly DATASUS archives use semicolons, elasticnes exports use commas.
func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
