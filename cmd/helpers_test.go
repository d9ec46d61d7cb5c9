package cmd

import (
	"reflect"
	"testing"
)

func TestExtractVerbose(t *testing.T) {
	cases := []struct {
		in      []string
		rest    []string
		verbose bool
	}{
		{[]string{"status", "-follow", "abc"}, []string{"status", "-follow", "abc"}, false},
		{[]string{"-verbose", "status", "abc"}, []string{"status", "abc"}, true},
		{[]string{"status", "--verbose"}, []string{"status"}, true},
		{nil, []string{}, false},
	}
	for _, tc := range cases {
		rest, verbose := ExtractVerbose(tc.in)
		if verbose != tc.verbose || !reflect.DeepEqual(rest, tc.rest) {
			t.Errorf("ExtractVerbose(%v) = %v, %v; want %v, %v",
				tc.in, rest, verbose, tc.rest, tc.verbose)
		}
	}
}
