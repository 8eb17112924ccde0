package main

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	for _, ok := range []string{"text", "json"} {
		if err := validateOutputFormat(ok); err != nil {
			t.Errorf("validateOutputFormat(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"bogus", "JSON", "yaml", ""} {
		if err := validateOutputFormat(bad); err == nil {
			t.Errorf("validateOutputFormat(%q) = nil, want error", bad)
		}
	}
}
