// Package output writes run results and replaces a previous output
// directory through a temp-then-move protocol with a timestamped backup.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"spanmidline/internal/models"
)

// TableFile is the name of the metric table inside an output directory.
const TableFile = "map.csv"

// TempDir creates <output>.tmp.<unix seconds> next to the final directory.
func TempDir(output string, unix int64) (string, error) {
	tmp := fmt.Sprintf("%s.tmp.%d", output, unix)
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return tmp, nil
}

// WriteTable writes the table as "name,value" rows.
func WriteTable(path string, table *models.MetricTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "value"}); err != nil {
		f.Close()
		return err
	}
	for _, m := range table.Metrics() {
		if err := w.Write([]string{m.Name, m.Format()}); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("error writing table: %w", err)
	}
	return f.Close()
}

// ReadTable reads a table written by WriteTable. NA values come back as NA
// metrics.
func ReadTable(path string) (*models.MetricTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening table: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading table %s: %w", path, err)
	}
	if len(rows) == 0 || len(rows[0]) != 2 || rows[0][0] != "name" || rows[0][1] != "value" {
		return nil, fmt.Errorf("table %s has no name,value header", path)
	}

	table := models.NewMetricTable()
	for _, row := range rows[1:] {
		if len(row) != 2 {
			return nil, fmt.Errorf("table %s: malformed row %v", path, row)
		}
		if row[1] == models.NA {
			table.SetNA(row[0])
			continue
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("table %s: metric %s: %w", path, row[0], err)
		}
		table.Set(row[0], v)
	}
	return table, nil
}

// Swap moves an existing output directory to <output>.bck.<unix> and then
// renames tmp into place. It returns the backup path, or "" when there was
// nothing to back up.
func Swap(tmp, output string, unix int64, log logrus.FieldLogger) (string, error) {
	var backup string
	if _, err := os.Stat(output); err == nil {
		backup = fmt.Sprintf("%s.bck.%d", output, unix)
		for n := 1; exists(backup); n++ {
			backup = fmt.Sprintf("%s.bck.%d.%d", output, unix, n)
		}

		log.WithField("backup", backup).Info("backing previous results")
		if err := os.Rename(output, backup); err != nil {
			return "", fmt.Errorf("failed to back up %s: %w", output, err)
		}
	}

	log.Info("cleaning up")
	if err := os.Rename(tmp, output); err != nil {
		return backup, fmt.Errorf("failed to move results into %s: %w", output, err)
	}
	return backup, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
