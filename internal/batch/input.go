/*
PURPOSE:
  Reads shipment lists for the batch runner from CSV or YAML files.

REQUIREMENTS:
  Implementation-discovered:
  - CSV columns are found by header name (material, weight, distance_km)
    so column order does not matter.
  - YAML files hold a top-level "shipments" list.

ERROR HANDLING:
  - Unknown extensions and missing columns are errors naming the file.
  - Incomplete rows are returned as-is. The runner skips them.

RELATED FILES:
  - internal/batch/runner.go
*/

package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/load-estimator/internal/model"
)

// ReadShipments loads shipments from a .csv, .yaml or .yml file.
func ReadShipments(path string) ([]model.Shipment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}

	var shipments []model.Shipment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		shipments, err = parseCSV(data)
	case ".yaml", ".yml":
		shipments, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported input %s: want .csv, .yaml or .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return shipments, nil
}

// parseCSV expects a header naming material, weight and distance_km in any
// order. Other columns are ignored.
func parseCSV(data []byte) ([]model.Shipment, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"material", "weight", "distance_km"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	get := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var shipments []model.Shipment
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, model.Shipment{
			Material:   get(row, "material"),
			Weight:     get(row, "weight"),
			DistanceKm: get(row, "distance_km"),
		})
	}
	return shipments, nil
}

func parseYAML(data []byte) ([]model.Shipment, error) {
	var doc struct {
		Shipments []model.Shipment `yaml:"shipments"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Shipments, nil
}
