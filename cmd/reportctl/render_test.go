package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRenderHTMLToStdout(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	dir := t.TempDir()
	claim := writeFixture(t, dir, "claim.json", `{
		"id": "claim-1",
		"garage_id": "garage-1",
		"reference": "VWC-2025-000042",
		"status": "review",
		"vehicle_data": {"brand": "Peugeot", "model": "208", "year": "2021", "plate": "AB-123-CD"},
		"client_data": {"name": "Jeanne <Dupont>"},
		"insurance_details": {},
		"ai_report": {"damages": [{"zone": "Pare-chocs", "severity": "severe", "estimated_hours": 3.5}]},
		"images": []
	}`)
	garage := writeFixture(t, dir, "garage.json", `{"id": "garage-1", "name": "Garage Martin", "company_address": {"city": "Lyon"}}`)

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"render", "--claim", claim, "--garage", garage, "--format", "html"})

	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v (stderr: %s)", err, stderr.String())
	}

	html := stdout.String()
	for _, want := range []string{"VWC-2025-000042", "Garage Martin", "Peugeot", "Jeanne &lt;Dupont&gt;"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered html", want)
		}
	}
	if strings.Contains(html, "Jeanne <Dupont>") {
		t.Fatalf("client name must be escaped")
	}
	if !strings.Contains(stderr.String(), `"msg":"report_rendered"`) {
		t.Fatalf("expected structured log on stderr, got %q", stderr.String())
	}
}

func TestRenderWritesOutputFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	dir := t.TempDir()
	claim := writeFixture(t, dir, "claim.json", `{"id": "claim-1", "garage_id": "garage-1", "reference": "VWC-2025-000042"}`)
	out := filepath.Join(dir, "report.html")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"render", "--claim", claim, "--format", "html", "-o", out})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "<html") {
		t.Fatalf("expected html document in output file")
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	dir := t.TempDir()
	claim := writeFixture(t, dir, "claim.json", `{"id": "claim-1"}`)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"render", "--claim", claim, "--format", "docx"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestRenderRequiresClaim(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"render", "--format", "html"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected missing --claim error")
	}
}

func TestEventsRequiresURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NATS_URL", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"events"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "NATS_URL") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}
