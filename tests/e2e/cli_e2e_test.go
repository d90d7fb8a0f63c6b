package main_test

import (
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// cleanEnv isolates a kin invocation from the host user's config and data.
func cleanEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	return append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"KIN_FILE=",
	)
}

func TestVersionFlag(t *testing.T) {
	kin := buildKinBinary(t)

	out, err := exec.Command(kin, "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("--version failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(string(out), "kin ") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestExportWritesSVGAndPNG(t *testing.T) {
	kin := buildKinBinary(t)

	dir := t.TempDir()
	writeFamilyFixture(t, dir)
	outPath := filepath.Join(dir, "chart.svg")

	cmd := exec.Command(kin,
		"--export", outPath,
		"--format", "both",
		"--title", "E2E Family",
	)
	cmd.Dir = dir
	cmd.Env = cleanEnv(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("--export failed: %v\n%s", err, out)
	}

	svgBytes, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("missing SVG artifact: %v", err)
	}
	for _, want := range []string{"<svg", "Tani", "E2E Family"} {
		if !strings.Contains(string(svgBytes), want) {
			t.Errorf("SVG missing %q", want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "chart.png")); err != nil {
		t.Errorf("missing PNG artifact: %v", err)
	}
}

func TestExportCollapsedView(t *testing.T) {
	kin := buildKinBinary(t)

	dir := t.TempDir()
	writeFamilyFixture(t, dir)
	outPath := filepath.Join(dir, "default-view.svg")

	cmd := exec.Command(kin, "--export", outPath, "--collapsed")
	cmd.Dir = dir
	cmd.Env = cleanEnv(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("--export --collapsed failed: %v\n%s", err, out)
	}

	svgBytes, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("missing artifact: %v", err)
	}
	// The default view shows two generations; grandchildren stay collapsed.
	if !strings.Contains(string(svgBytes), "Dibo") {
		t.Error("collapsed view should still show the root's children")
	}
	if strings.Contains(string(svgBytes), "Pika") {
		t.Error("collapsed view should not reach the grandchildren")
	}
}

func TestConvertRoundTrip(t *testing.T) {
	kin := buildKinBinary(t)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "links.csv")
	csv := "Tani,Dibo,Kusa\nDibo,Jini\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	outPath := filepath.Join(dir, "converted.json")

	cmd := exec.Command(kin, "--convert", csvPath, "--out", outPath)
	cmd.Dir = dir
	cmd.Env = cleanEnv(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("--convert failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "4 people") {
		t.Errorf("expected people count in output, got %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("missing converted file: %v", err)
	}
	var root struct {
		Name     string `json:"name"`
		Children []any  `json:"children"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		t.Fatalf("converted file is not valid JSON: %v", err)
	}
	if root.Name != "Tani" || len(root.Children) != 2 {
		t.Errorf("unexpected converted root: %+v", root)
	}
}

func TestMissingDataIsFatal(t *testing.T) {
	kin := buildKinBinary(t)

	cmd := exec.Command(kin, "--export", "never.svg")
	cmd.Dir = t.TempDir() // no family.json anywhere
	cmd.Env = cleanEnv(t)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure without data, got:\n%s", out)
	}
	if !strings.Contains(string(out), "Error loading family data") {
		t.Errorf("expected a load error message, got %q", out)
	}
}

func TestMalformedDataIsFatal(t *testing.T) {
	kin := buildKinBinary(t)

	dir := t.TempDir()
	bad := filepath.Join(dir, "family.json")
	if err := os.WriteFile(bad, []byte(`{"name": "Tani", "children": "oops"}`), 0o644); err != nil {
		t.Fatalf("write bad family.json: %v", err)
	}

	cmd := exec.Command(kin, "--file", bad, "--export", "never.svg")
	cmd.Dir = dir
	cmd.Env = cleanEnv(t)
	if out, err := cmd.CombinedOutput(); err == nil {
		t.Fatalf("expected failure on malformed data, got:\n%s", out)
	}
}

func TestServeEndpoints(t *testing.T) {
	kin := buildKinBinary(t)

	dir := t.TempDir()
	writeFamilyFixture(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>kin</html>"), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}

	addr := freeAddr(t)
	cmd := exec.Command(kin, "--serve", "--addr", addr, "--site", dir)
	cmd.Dir = dir
	cmd.Env = cleanEnv(t)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	base := "http://" + addr
	waitForServer(t, base+"/family.json")

	resp, err := http.Get(base + "/family.json")
	if err != nil {
		t.Fatalf("GET family.json: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Tani") {
		t.Error("served data missing the root person")
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected permissive CORS header, got %q", got)
	}

	resp, err = http.Get(base + "/")
	if err != nil {
		t.Fatalf("GET index: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "kin") {
		t.Error("static site not served")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server at %s never came up", url)
}
