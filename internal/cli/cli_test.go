package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	if err := PrintVersion(&out, "quasi", false); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "quasi v"+Version+"\n") {
		t.Errorf("text output = %q", out.String())
	}

	out.Reset()
	if err := PrintVersion(&out, "quasi", true); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Tool        string      `json:"tool"`
		VersionInfo VersionInfo `json:"version_info"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if decoded.Tool != "quasi" || decoded.VersionInfo.MacroAPI == "" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err      error
		code     int
		reported string
	}{
		{nil, ExitOK, ""},
		{Findings(), ExitFindings, ""},
		{errors.New("bad flag"), ExitError, "Error: bad flag\n"},
		{&ExitCodeError{Code: 3, Err: errors.New("x")}, 3, "Error: x\n"},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		if got := HandleError(&out, tc.err); got != tc.code {
			t.Errorf("HandleError(%v) = %d, want %d", tc.err, got, tc.code)
		}
		if out.String() != tc.reported {
			t.Errorf("HandleError(%v) wrote %q, want %q", tc.err, out.String(), tc.reported)
		}
	}
}
