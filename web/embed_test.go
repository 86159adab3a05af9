package web

import "testing"

func TestEmbeddedStylesheet(t *testing.T) {
	data, err := Static.ReadFile("static/app.css")
	if err != nil {
		t.Fatalf("read stylesheet: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected a non-empty stylesheet")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	for _, dir := range []string{"templates/layouts", "templates/partials", "templates/pages"} {
		entries, err := Templates.ReadDir(dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		if len(entries) == 0 {
			t.Fatalf("expected templates under %s", dir)
		}
	}
}
