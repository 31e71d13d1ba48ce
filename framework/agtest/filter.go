package agtest

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/agroweb/integration-harness/framework"
)

// Filter decides whether a specific test should run.
type Filter interface {
	Match(id TestID) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(TestID) bool

func (f FilterFunc) Match(id TestID) bool { return f(id) }

// RegexFilters implements the -run and -skip command-line options.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

func (r RegexFilters) Match(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id, true)) &&
		!r.MustNotMatch.AnyMatch(id, false)
}

// Describe prints a summary of which tests will be excluded and why.
func (r RegexFilters) Describe(out io.Writer, available framework.Capabilities, expected framework.Capabilities) {
	if r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined() {
		fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
		if r.MustMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any not matching %s\n", r.MustMatch)
		}
		if r.MustNotMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any matching %s\n", r.MustNotMatch)
		}
		fmt.Fprintln(out)
	}
	var missing []string
	for _, c := range expected {
		if !available.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) != 0 {
		fmt.Fprintln(out, "Some tests will be skipped because these services or features did not respond:")
		fmt.Fprintf(out, "  %s\n\n", strings.Join(missing, ", "))
	}
}

// TestIDPattern matches a TestID component by component; the pattern "a/b" matches any test whose
// first name matches "a" and whose second name matches "b".
type TestIDPattern []*regexp.Regexp

func (p TestIDPattern) Match(id TestID, includeParents bool) bool {
	n := len(p)
	if n > len(id) {
		if !includeParents {
			return false
		}
		n = len(id)
	}
	for i := 0; i < n; i++ {
		if !p[i].MatchString(id[i]) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	parts := make([]string, 0, len(p))
	for _, rx := range p {
		parts = append(parts, rx.String())
	}
	return strings.Join(parts, "/")
}

func ParseTestIDPattern(s string) (TestIDPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(TestIDPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", part, err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

// TestIDPatternList implements flag.Value so it can be given more than once on the command line.
type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	quoted := make([]string, 0, len(l))
	for _, p := range l {
		quoted = append(quoted, `"`+p.String()+`"`)
	}
	return strings.Join(quoted, " or ")
}

func (l *TestIDPatternList) Set(value string) error {
	p, err := ParseTestIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l TestIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestIDPatternList) AnyMatch(id TestID, includeParents bool) bool {
	for _, p := range l {
		if p.Match(id, includeParents) {
			return true
		}
	}
	return false
}
