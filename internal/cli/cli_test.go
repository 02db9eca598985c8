package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daryltucker/load-estimator/internal/model"
)

const estimateJSON = `{"recommendedTruck":"Eicher 19ft","estimatedCost":"₹9,000 - ₹10,500","fuelEstimate":"45 Litres","tollEstimate":"₹850","explanation":"Based on 350km haul for medium steel load."}`

// isolate runs the test in an empty directory with no credentials set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{
		"LOAD_ESTIMATOR_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"OLLAMA_API_KEY", "API_KEY", "LOAD_ESTIMATOR_PROVIDER", "LOAD_ESTIMATOR_MODEL",
		"LOAD_ESTIMATOR_BASE_URL", "LOAD_ESTIMATOR_REDIS_ADDR", "LOAD_ESTIMATOR_REDIS_PASSWORD",
	} {
		t.Setenv(name, "")
	}
	return dir
}

// fakeGemini answers generateContent with payload and lists two models.
func fakeGemini(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, `{"error":{"code":403,"message":"bad key","status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1beta/models":
			fmt.Fprint(w, `{"models":[{"name":"models/gemini-3-flash-preview"},{"name":"models/gemini-2.5-pro"}]}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":generateContent"):
			text, _ := json.Marshal(payload)
			fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%s}]},"finishReason":"STOP"}]}`, text)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func useGemini(t *testing.T, payload string) {
	t.Helper()
	srv := fakeGemini(t, payload)
	t.Setenv("LOAD_ESTIMATOR_BASE_URL", srv.URL)
	t.Setenv("LOAD_ESTIMATOR_API_KEY", "test-key")
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cfgFile, providerOverride, modelOverride = "", "", ""
	logLevelOverride, logFormatOverride = "", ""
	materialFlag, weightFlag, distanceFlag, jsonOutput = "", "", "", false
	inputFile, outputOverride, pauseOverride = "", "", 0
	addrOverride, forceInit = "", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := Execute(context.Background())
	return out.String(), errOut.String(), err
}

func TestEstimate_Service(t *testing.T) {
	isolate(t)
	useGemini(t, estimateJSON)

	out, _, err := execute(t, "estimate", "--material", "Steel Pipes", "--weight", "5 tons", "--distance", "350")
	if err != nil {
		t.Fatalf("estimate error = %v", err)
	}
	for _, want := range []string{"Steel Pipes, 5 tons, 350 km", "Eicher 19ft", "₹9,000 - ₹10,500", "45 Litres", "₹850"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEstimate_PositionalJSON(t *testing.T) {
	isolate(t)
	useGemini(t, estimateJSON)

	out, _, err := execute(t, "estimate", "Steel Pipes", "5 tons", "350", "--json")
	if err != nil {
		t.Fatalf("estimate error = %v", err)
	}

	var got model.LoadEstimate
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.RecommendedTruck != "Eicher 19ft" {
		t.Errorf("RecommendedTruck = %q", got.RecommendedTruck)
	}
}

func TestEstimate_FallbackWithoutKey(t *testing.T) {
	isolate(t)

	out, logs, err := execute(t, "estimate", "Rice Bags", "10 tons", "800")
	if err != nil {
		t.Fatalf("estimate error = %v, fallback should not fail", err)
	}
	if !strings.Contains(out, "Standard 14ft Truck (Fallback)") {
		t.Errorf("output missing fallback truck:\n%s", out)
	}
	if !strings.Contains(logs, "missing_credential") {
		t.Errorf("logs missing cause:\n%s", logs)
	}
}

func TestEstimate_FallbackOnBadPayload(t *testing.T) {
	isolate(t)
	useGemini(t, `{"recommendedTruck":"Tata Ace"}`)

	out, _, err := execute(t, "estimate", "Cement", "2 tons", "40")
	if err != nil {
		t.Fatalf("estimate error = %v", err)
	}
	if !strings.Contains(out, "Unable to connect to AI. Showing rough standard estimates.") {
		t.Errorf("output missing fallback explanation:\n%s", out)
	}
}

func TestEstimate_RequiresShipment(t *testing.T) {
	isolate(t)

	tests := [][]string{
		{"estimate"},
		{"estimate", "--material", "Steel", "--weight", "5 tons"},
		{"estimate", "Steel", "5 tons"},
		{"estimate", "", "5 tons", "350"},
	}
	for _, args := range tests {
		if _, _, err := execute(t, args...); err == nil {
			t.Errorf("execute(%q) error = nil, want error", args)
		}
	}
}

func TestEstimate_UnknownProvider(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "estimate", "Steel", "5 tons", "350", "--provider", "watsonx")
	if err == nil || !strings.Contains(err.Error(), "watsonx") {
		t.Errorf("error = %v, want unknown provider", err)
	}
}

func TestEstimate_Journal(t *testing.T) {
	dir := isolate(t)
	useGemini(t, estimateJSON)

	journal := filepath.Join(dir, "journal.jsonl")
	cfg := "journal:\n  jsonl: " + journal + "\n"
	if err := os.WriteFile(filepath.Join(dir, "load_estimator.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := execute(t, "estimate", "Steel Pipes", "5 tons", "350"); err != nil {
		t.Fatalf("estimate error = %v", err)
	}

	data, err := os.ReadFile(journal)
	if err != nil {
		t.Fatalf("journal not written: %v", err)
	}
	var rec model.Record
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("bad journal line: %v\n%s", err, data)
	}
	if rec.Outcome != model.OutcomeService || rec.Provider != "gemini" || rec.ID == "" {
		t.Errorf("journal record = %+v", rec)
	}
}

func TestBatch(t *testing.T) {
	dir := isolate(t)
	useGemini(t, estimateJSON)

	input := filepath.Join(dir, "shipments.csv")
	if err := os.WriteFile(input, []byte("material,weight,distance_km\nSteel Pipes,5 tons,350\nRice Bags,,800\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	out, _, err := execute(t, "batch", "-i", input, "-o", outDir)
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}
	if !strings.Contains(out, "2 shipments: 1 estimated, 0 fallback, 1 skipped") {
		t.Errorf("summary = %q", out)
	}
	for _, name := range []string{"estimates.csv", "estimates.jsonl"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestBatch_RequiresInput(t *testing.T) {
	isolate(t)
	if _, _, err := execute(t, "batch"); err == nil {
		t.Error("batch without --input error = nil")
	}
}

func TestListModels(t *testing.T) {
	isolate(t)
	useGemini(t, estimateJSON)

	out, _, err := execute(t, "list-models")
	if err != nil {
		t.Fatalf("list-models error = %v", err)
	}
	if !strings.Contains(out, "* gemini-3-flash-preview") || !strings.Contains(out, "  gemini-2.5-pro") {
		t.Errorf("list-models output:\n%s", out)
	}
}

func TestListModels_MissingKey(t *testing.T) {
	isolate(t)
	if _, _, err := execute(t, "list-models"); err == nil {
		t.Error("list-models without key error = nil")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := isolate(t)
	t.Setenv("LOAD_ESTIMATOR_API_KEY", "super-secret")

	if _, _, err := execute(t, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "load_estimator.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, _, err := execute(t, "config", "init"); err == nil {
		t.Error("second config init without --force error = nil")
	}
	if _, _, err := execute(t, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, _, err := execute(t, "config", "show", "--provider", "openai")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "super-secret") {
		t.Errorf("config show leaked the API key:\n%s", out)
	}
	for _, want := range []string{"# api key: ****", "provider: openai", "model: gpt-4o-mini"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit_CustomPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "custom.yaml")

	if _, _, err := execute(t, "config", "init", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}
