package sampler

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestMeasureProcessCompleted(t *testing.T) {
	m := testSampler().MeasureProcess(
		context.Background(),
		"true",
		Payload{Argv: []string{"sh", "-c", "true"}},
		Config{Iterations: 2, Timeout: 10 * time.Second},
	)

	if m.Failed() {
		t.Fatalf("measurement failed: %v", m.Err)
	}
	if len(m.Samples) != 2 {
		t.Errorf("got %d samples, want 2", len(m.Samples))
	}

	for i, d := range m.Samples {
		if d <= 0 {
			t.Errorf("sample %d is non-positive: %v", i, d)
		}
	}
}

func TestMeasureProcessNonZeroExit(t *testing.T) {
	m := testSampler().MeasureProcess(
		context.Background(),
		"failing",
		Payload{Argv: []string{"sh", "-c", "exit 7"}},
		Config{Iterations: 3},
	)

	if !m.Failed() {
		t.Fatal("expected failed measurement for non-zero exit")
	}
	if !strings.Contains(m.Err.Error(), "exit code 7") {
		t.Errorf("err = %v, want exit code 7", m.Err)
	}
}

func TestMeasureProcessTimeout(t *testing.T) {
	start := time.Now()
	m := testSampler().MeasureProcess(
		context.Background(),
		"sleeper",
		Payload{Argv: []string{"sleep", "30"}},
		Config{Iterations: 1, Timeout: 200 * time.Millisecond},
	)
	elapsed := time.Since(start)

	if !m.Failed() {
		t.Fatal("expected failed measurement for timeout")
	}
	if !errors.Is(m.Err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", m.Err)
	}

	// The timeout must kill the subprocess rather than hang the run.
	if elapsed > 10*time.Second {
		t.Errorf("run took %v, timeout did not terminate the trial", elapsed)
	}
}

func TestMeasureProcessPayloadFileCleanup(t *testing.T) {
	source := "exit 0\n"
	p := Payload{
		Argv:        []string{"sh", PayloadPlaceholder},
		Source:      source,
		FilePattern: "benchvs-test-*.sh",
	}

	argv, cleanup, err := p.materialize()
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	path := argv[len(argv)-1]
	if path == PayloadPlaceholder {
		t.Fatal("placeholder was not expanded")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("payload file not written: %v", err)
	}
	if string(data) != source {
		t.Errorf("payload content = %q, want %q", data, source)
	}

	cleanup()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("payload file not removed by cleanup")
	}
}

func TestMeasureProcessSourcePayload(t *testing.T) {
	m := testSampler().MeasureProcess(
		context.Background(),
		"script",
		Payload{
			Argv:   []string{"sh", PayloadPlaceholder},
			Source: "x=$((1+1))\nexit 0\n",
		},
		Config{Iterations: 1},
	)

	if m.Failed() {
		t.Fatalf("measurement failed: %v", m.Err)
	}
}

func TestMeasureProcessCleanupOnFailure(t *testing.T) {
	before := tempPayloadCount(t)

	m := testSampler().MeasureProcess(
		context.Background(),
		"script",
		Payload{
			Argv:        []string{"sh", PayloadPlaceholder},
			Source:      "exit 1\n",
			FilePattern: "benchvs-cleanup-*.sh",
		},
		Config{Iterations: 2},
	)

	if !m.Failed() {
		t.Fatal("expected failure")
	}

	if after := tempPayloadCount(t); after != before {
		t.Errorf("payload files leaked: %d before, %d after", before, after)
	}
}

func TestMeasureProcessEmptyArgv(t *testing.T) {
	m := testSampler().MeasureProcess(
		context.Background(), "nothing", Payload{}, Config{Iterations: 1},
	)

	if !m.Failed() {
		t.Error("expected failure for empty argv")
	}
}

func tempPayloadCount(t *testing.T) int {
	t.Helper()

	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}

	count := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "benchvs-cleanup-") {
			count++
		}
	}

	return count
}
