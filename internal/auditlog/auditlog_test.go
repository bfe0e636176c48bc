package auditlog

import "testing"

func TestNewAndSync(t *testing.T) {
	log, err := New(false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.EntityFailed("/tmp/x", errTest{})
	log.ConfigWarn("unknown key %q ignored", "bogus")
	log.Line("%s has been modified", "/tmp/x")
	log.Emit(Summary{TotalFiles: 3, HashedFiles: 3})
	log.Sync()
}

func TestEmitQuietSuppressesSummary(t *testing.T) {
	log, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Quiet mode must not panic and must simply skip the summary line; there
	// is no observable side effect to assert beyond "doesn't crash".
	log.Emit(Summary{TotalFiles: 1})
	log.Sync()
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
