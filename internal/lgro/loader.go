package lgro

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dataset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// datasetFile mirrors updates/lgro-<year>.json. Pointers distinguish a
// missing field from a zero value.
type datasetFile struct {
	Counties *[]countyEntry `json:"counties" yaml:"counties"`
}

type countyEntry struct {
	CountyName   *string             `json:"county_name" yaml:"county_name"`
	NewDistricts *[]newDistrictEntry `json:"new_districts" yaml:"new_districts"`
}

type newDistrictEntry struct {
	NewDistrictName *string   `json:"new_district_name" yaml:"new_district_name"`
	DistrictType    *int      `json:"district_type" yaml:"district_type"`
	OldDistricts    *[]string `json:"old_districts" yaml:"old_districts"`
}

// DatasetPath returns the first existing dataset file for year under
// dataRoot/updates, trying .json, .yaml and .yml in that order.
func DatasetPath(dataRoot string, year int) (string, Format, error) {
	base := filepath.Join(dataRoot, "updates", fmt.Sprintf("lgro-%d", year))
	candidates := []struct {
		ext    string
		format Format
	}{
		{".json", FormatJSON},
		{".yaml", FormatYAML},
		{".yml", FormatYAML},
	}
	for _, c := range candidates {
		path := base + c.ext
		if _, err := os.Stat(path); err == nil {
			return path, c.format, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", "", fmt.Errorf("%w: %s.json", ErrDatasetNotFound, base)
}

// LoadEvent locates and parses the dataset for year.
func LoadEvent(dataRoot string, year int) (*Event, error) {
	path, format, err := DatasetPath(dataRoot, year)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	event, err := ParseEvent(f, format, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return event, nil
}

// ParseEvent decodes a dataset and builds the event graph in file order.
func ParseEvent(r io.Reader, format Format, year int) (*Event, error) {
	if year <= 0 {
		return nil, fmt.Errorf("%w: invalid year %d", ErrDatasetMalformed, year)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrDatasetMalformed)
	}

	var file datasetFile
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &file)
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDatasetMalformed, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetMalformed, err)
	}

	return file.build(year)
}

func (f datasetFile) build(year int) (*Event, error) {
	if f.Counties == nil {
		return nil, malformed("counties", "missing")
	}

	event := &Event{Year: year}
	for i, ce := range *f.Counties {
		path := fmt.Sprintf("counties[%d]", i)
		name, err := requiredName(path+".county_name", ce.CountyName)
		if err != nil {
			return nil, err
		}
		if ce.NewDistricts == nil {
			return nil, malformed(path+".new_districts", "missing")
		}

		county := &County{Name: name}
		seen := make(map[string]bool)
		for j, nde := range *ce.NewDistricts {
			ndPath := fmt.Sprintf("%s.new_districts[%d]", path, j)
			nd, err := nde.build(ndPath)
			if err != nil {
				return nil, err
			}
			if seen[nd.Name] {
				return nil, malformed(ndPath+".new_district_name", fmt.Sprintf("%q listed twice", nd.Name))
			}
			seen[nd.Name] = true
			county.NewDistricts = append(county.NewDistricts, nd)
		}
		event.Counties = append(event.Counties, county)
	}
	return event, nil
}

func (e newDistrictEntry) build(path string) (*NewDistrict, error) {
	name, err := requiredName(path+".new_district_name", e.NewDistrictName)
	if err != nil {
		return nil, err
	}
	if e.DistrictType == nil {
		return nil, malformed(path+".district_type", "missing")
	}
	if *e.DistrictType <= 0 {
		return nil, malformed(path+".district_type", fmt.Sprintf("must be positive, got %d", *e.DistrictType))
	}
	if e.OldDistricts == nil {
		return nil, malformed(path+".old_districts", "missing")
	}

	nd := &NewDistrict{
		Name:         name,
		DistrictType: *e.DistrictType,
		State:        StatePending,
	}
	for k, od := range *e.OldDistricts {
		od = strings.TrimSpace(od)
		if od == "" {
			return nil, malformed(fmt.Sprintf("%s.old_districts[%d]", path, k), "empty name")
		}
		nd.OldDistricts = append(nd.OldDistricts, &OldDistrict{Name: od, State: StatePending})
	}
	return nd, nil
}

func requiredName(path string, v *string) (string, error) {
	if v == nil {
		return "", malformed(path, "missing")
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", malformed(path, "empty name")
	}
	return s, nil
}

func malformed(path, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDatasetMalformed, path, reason)
}
