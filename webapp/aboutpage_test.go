package webapp

import (
	"encoding/json"
	"testing"
)

// TestGetBackendDisplay tests the render backend display conversion
func TestGetBackendDisplay(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		expected string
	}{
		{name: "PDFium", backend: "pdfium", expected: "PDFium (WebAssembly)"},
		{name: "Fitz", backend: "fitz", expected: "MuPDF"},
		{name: "MuPDF alias", backend: "mupdf", expected: "MuPDF"},
		{name: "Unknown", backend: "poppler", expected: "poppler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{aboutInfo: AboutInfo{RenderBackend: tt.backend}}
			if got := page.getBackendDisplay(); got != tt.expected {
				t.Errorf("getBackendDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestGetHistoryStatus tests the job history display conversion
func TestGetHistoryStatus(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		dbType   string
		expected string
	}{
		{name: "Disabled", enabled: false, dbType: "sqlite", expected: "Disabled"},
		{name: "SQLite", enabled: true, dbType: "sqlite", expected: "SQLite"},
		{name: "PostgreSQL", enabled: true, dbType: "postgres", expected: "PostgreSQL"},
		{name: "Ephemeral", enabled: true, dbType: "ephemeral", expected: "Ephemeral PostgreSQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{aboutInfo: AboutInfo{JobHistory: tt.enabled, DatabaseType: tt.dbType}}
			if got := page.getHistoryStatus(); got != tt.expected {
				t.Errorf("getHistoryStatus() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestAboutInfoDecoding checks the page understands the /api/about payload
func TestAboutInfoDecoding(t *testing.T) {
	payload := `{"version":"v1.2.3","renderBackend":"pdfium","dpiOptions":[150,300,600],"defaultDPI":300,
		"maxSafePages":50,"maxSafeDPI":150,"maxUploadMB":64,"databaseType":"sqlite","jobHistory":true,"activeSessions":2}`

	page := &AboutPage{}
	if err := json.Unmarshal([]byte(payload), &page.aboutInfo); err != nil {
		t.Fatalf("Failed to decode about payload: %v", err)
	}

	if got := page.getDPIOptions(); got != "150, 300, 600 DPI" {
		t.Errorf("getDPIOptions() = %q", got)
	}
	if got := page.getSafetyRule(); got != "Documents with more than 50 pages are converted at 150 DPI at most." {
		t.Errorf("getSafetyRule() = %q", got)
	}
	if page.aboutInfo.ActiveSessions != 2 {
		t.Errorf("ActiveSessions = %d, want 2", page.aboutInfo.ActiveSessions)
	}
}

// TestAboutPageRenderStates tests that different states produce valid UI
func TestAboutPageRenderStates(t *testing.T) {
	t.Run("Loading state returns valid UI", func(t *testing.T) {
		page := &AboutPage{loading: true}
		if page.Render() == nil {
			t.Error("Loading state should return non-nil UI")
		}
	})

	t.Run("Error state returns valid UI", func(t *testing.T) {
		page := &AboutPage{error: "Network error"}
		if page.Render() == nil {
			t.Error("Error state should return non-nil UI")
		}
	})

	t.Run("Success state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			aboutInfo: AboutInfo{
				Version:       "v1.2.3",
				RenderBackend: "pdfium",
				DPIOptions:    []int{150, 300, 600},
				DefaultDPI:    300,
			},
		}
		if page.Render() == nil {
			t.Error("Success state should return non-nil UI")
		}
	})
}
