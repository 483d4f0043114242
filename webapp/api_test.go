package webapp

import (
	"encoding/json"
	"testing"
)

func TestBuildAPIURLIsRelativeOnServer(t *testing.T) {
	if got := BuildAPIURL("/api/sessions"); got != "/api/sessions" {
		t.Errorf("BuildAPIURL() = %q, want relative path", got)
	}
	if got := GetDefaultDPI(); got != 300 {
		t.Errorf("GetDefaultDPI() = %d, want 300", got)
	}
}

func TestSessionURLs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "Inline page",
			got:  pageURL("01ABC", 2, "doc-300", false),
			want: "/api/sessions/01ABC/pages/2?v=doc-300",
		},
		{
			name: "Downloaded page",
			got:  pageURL("01ABC", 12, "doc-150", true),
			want: "/api/sessions/01ABC/pages/12?v=doc-150&download=1",
		},
		{
			name: "Thumbnail",
			got:  thumbnailURL("01ABC", 1, "doc-600"),
			want: "/api/sessions/01ABC/pages/1/thumbnail?v=doc-600",
		},
		{
			name: "Archive",
			got:  archiveURL("01ABC", "doc-300"),
			want: "/api/sessions/01ABC/archive?v=doc-300",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSnapshotDecoding(t *testing.T) {
	payload := `{"sessionId":"01S","state":"ready","documentId":"01D","fileName":"report.pdf","stem":"report",
		"pageCount":2,"pageCountKnown":true,"requestedDPI":600,"effectiveDPI":600,
		"message":"Conversion successful! Found 2 pages.",
		"pages":[{"number":1,"name":"report_page_001.png","size":10},{"number":2,"name":"report_page_002.png","size":12}],
		"archiveName":"report_all_pages.zip","enlarged":0,"renders":1}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if !snap.Ready() {
		t.Error("Expected a ready snapshot")
	}
	if snap.renderVersion() != "01D-600" {
		t.Errorf("renderVersion() = %q", snap.renderVersion())
	}
	if snap.Pages[1].Name != "report_page_002.png" {
		t.Errorf("Unexpected page name %q", snap.Pages[1].Name)
	}

	empty := Snapshot{State: "empty"}
	if empty.Ready() {
		t.Error("Empty snapshot should not be ready")
	}
}
