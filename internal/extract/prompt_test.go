package extract

import (
	"strings"
	"testing"
)

func TestIngestPrompt_EmbedsTextVerbatim(t *testing.T) {
	text := "โอนแล้ว 1,500 บาท order #SO-4412"
	p := ingestPrompt(text)

	if !strings.Contains(p, `"""`+text+`"""`) {
		t.Errorf("prompt does not embed message verbatim between fences:\n%s", p)
	}
	if !strings.Contains(p, "SAP entry") {
		t.Errorf("prompt missing instruction text:\n%s", p)
	}
}

func TestDetailedPrompt_EmbedsTextVerbatim(t *testing.T) {
	text := "Tracking TH123456789 ยอด 2,000"
	p := detailedPrompt(text)

	if !strings.Contains(p, text) {
		t.Errorf("prompt does not embed message:\n%s", p)
	}
	if !strings.Contains(p, "ERP/SAP") {
		t.Errorf("prompt missing instruction header:\n%s", p)
	}
}

func TestIngestSchema_RequiredFields(t *testing.T) {
	s := ingestSchema()

	items, ok := s.Properties["items"]
	if !ok || items.Items == nil {
		t.Fatalf("schema missing items array: %+v", s)
	}
	want := []string{"value", "type", "context"}
	if len(items.Items.Required) != len(want) {
		t.Fatalf("required = %v, want %v", items.Items.Required, want)
	}
	for i, f := range want {
		if items.Items.Required[i] != f {
			t.Errorf("required[%d] = %q, want %q", i, items.Items.Required[i], f)
		}
	}
}

func TestDetailedSchema_RequiredFields(t *testing.T) {
	s := detailedSchema()

	items := s.Properties["items"]
	if items.Items == nil {
		t.Fatalf("schema missing items array: %+v", s)
	}
	required := strings.Join(items.Items.Required, ",")
	for _, f := range []string{"id", "value", "type", "context", "confidence"} {
		if !strings.Contains(required, f) {
			t.Errorf("required fields %q missing %q", required, f)
		}
	}
}
