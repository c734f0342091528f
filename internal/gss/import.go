// Package gss imports GSS admin-area codes for districts from a
// tab-separated file of district name and code.
package gss

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

// codePattern is a GSS admin-area code: nation letter and eight digits.
var codePattern = regexp.MustCompile(`^[EWS][0-9]{8}$`)

// ContextCheckInterval is how often, in rows, cancellation is checked.
var ContextCheckInterval = 100

// DefaultSource is the import file used when none is given.
func DefaultSource(dataRoot string) string {
	return filepath.Join(dataRoot, "updates", "gss_admin_areas.csv")
}

// Store is the part of the gazetteer the import touches.
type Store interface {
	FindDistrictsForGSS(ctx context.Context, name string) ([]gazetteer.District, error)
	SetDistrictGSS(ctx context.Context, districtID int, code string) error
}

// Status messages for a processed line.
const (
	StatusOK            = "OK"
	StatusNotFound      = "District not found."
	StatusDuplicate     = "Duplicate district names found."
	StatusNonConformant = "Non-conformant GSS Code"
	StatusMalformedRow  = "Malformed row"
)

// Line is the outcome of one input row. Unchanged rows have an empty Status.
type Line struct {
	N      int
	Name   string
	Code   string
	Status string
	Err    bool
}

func (l Line) String() string {
	name := l.Name + " "
	if pad := 44 - len(name); pad > 0 {
		name += strings.Repeat(".", pad)
	}
	return fmt.Sprintf("%4d %s %s %s", l.N, name, l.Code, l.Status)
}

// Result counts what an import did.
type Result struct {
	Processed int
	Errors    int
	Updated   int
	Lines     []Line // rows that were updated or failed
}

// Importer applies a GSS code file to the districts table.
type Importer struct {
	Store  Store
	Logger *slog.Logger
}

// Import reads rows of district_name<TAB>gss_code. A code is stored only on
// a single matching district that has no code yet; a matching stored code is
// left alone and a different stored code is reported as a mismatch.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var res Result
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read line %d: %w", res.Processed+1, err)
		}

		res.Processed++
		if res.Processed%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		line, err := im.processRow(ctx, res.Processed, record)
		if err != nil {
			return res, err
		}
		switch {
		case line.Err:
			res.Errors++
			res.Lines = append(res.Lines, line)
			logger.Warn("gss code not applied", "line", line.N, "district", line.Name, "gss_code", line.Code, "reason", line.Status)
		case line.Status == StatusOK:
			res.Updated++
			res.Lines = append(res.Lines, line)
			logger.Debug("gss code applied", "line", line.N, "district", line.Name, "gss_code", line.Code)
		}
	}
	return res, nil
}

func (im *Importer) processRow(ctx context.Context, n int, record []string) (Line, error) {
	if len(record) < 2 {
		name := ""
		if len(record) == 1 {
			name = record[0]
		}
		return Line{N: n, Name: name, Status: StatusMalformedRow, Err: true}, nil
	}

	line := Line{N: n, Name: strings.TrimSpace(record[0]), Code: strings.ToUpper(strings.TrimSpace(record[1]))}

	districts, err := im.Store.FindDistrictsForGSS(ctx, line.Name)
	if err != nil {
		return line, err
	}
	switch len(districts) {
	case 0:
		return failed(line, StatusNotFound), nil
	case 1:
	default:
		return failed(line, StatusDuplicate), nil
	}

	d := districts[0]
	stored := ""
	if d.GSSCode.Valid {
		stored = strings.ToUpper(d.GSSCode.String)
	}
	if stored == line.Code {
		return line, nil
	}

	line.Name = fmt.Sprintf("%s (%d)", d.DisplayName, d.ID)
	if !codePattern.MatchString(line.Code) {
		return failed(line, StatusNonConformant), nil
	}
	if stored != "" {
		return failed(line, "GSS Code mis-match with "+stored), nil
	}

	if err := im.Store.SetDistrictGSS(ctx, d.ID, line.Code); err != nil {
		return line, err
	}
	line.Status = StatusOK
	return line, nil
}

func failed(l Line, status string) Line {
	l.Status = status
	l.Err = true
	return l
}

// WriteReport prints each reported line and the totals.
func WriteReport(w io.Writer, res Result) error {
	for _, l := range res.Lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nRecords Processed:  %4d\nErrors Encountered: %4d\n", res.Processed, res.Errors)
	return err
}
