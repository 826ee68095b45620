package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/piwi3910/SolarRack/internal/engine"
	"github.com/piwi3910/SolarRack/internal/model"
)

func TestWriteComparisonHTML(t *testing.T) {
	q := buildTestQuote(t)
	results := engine.CompareScenarios(engine.BuildDefaultScenarios(q.Configuration), model.DefaultCatalog())

	var buf bytes.Buffer
	if err := WriteComparisonHTML(&buf, results); err != nil {
		t.Fatalf("WriteComparisonHTML returned error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<html", "Current Settings", "Vertical Panels", "Total cost", "Rail pieces"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestWriteComparisonHTML_AllFailed(t *testing.T) {
	results := []engine.ComparisonResult{{Err: errors.New("bad dimensions")}}

	var buf bytes.Buffer
	if err := WriteComparisonHTML(&buf, results); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}
}
