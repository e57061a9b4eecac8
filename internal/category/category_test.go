package category

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFilenameHintWins(t *testing.T) {
	c := NewKeywordClassifier()

	// The filename signal short-circuits content scanning entirely.
	got := c.Classify("Vacation-Policy-2024.pdf", "salary salary bonus bonus")
	assert.Equal(t, "leave-policies", got)

	got = c.Classify("benefits_guide.docx", "")
	assert.Equal(t, "benefits", got)
}

func TestClassifyContentThreshold(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"two distinct keywords", "our insurance plan includes dental coverage", "benefits"},
		{"same keyword repeated", "401k contributions and 401k matching", "benefits"},
		{"single hit is not enough", "the dental appointment", General},
		{"no keywords", "the office kitchen has a coffee machine", General},
		{"compensation", "salary bands and bonus targets are reviewed annually", "compensation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify("", tt.text))
		})
	}
}

func TestClassifyFixedOrderBreaksTies(t *testing.T) {
	c := NewKeywordClassifier()

	// Both benefits and leave-policies reach the threshold; benefits is
	// evaluated first and wins.
	text := "health insurance covers you during vacation and sick leave"
	assert.Equal(t, "benefits", c.Classify("", text))
}

func TestClassifyLeavePolicyDocument(t *testing.T) {
	c := NewKeywordClassifier()

	var b strings.Builder
	b.WriteString("Employees accrue paid time off each month. ")
	for i := 0; i < 5; i++ {
		b.WriteString("Unused vacation days carry over. ")
	}
	for i := 0; i < 3; i++ {
		b.WriteString("Notify your manager when sick. ")
	}
	// Avoid "leave"/"pto" noise so only the intended keywords score; with
	// no filename hint the content scan decides.
	assert.Equal(t, "leave-policies", c.Classify("", b.String()))
}

func TestClassifyIsPure(t *testing.T) {
	c := NewKeywordClassifier()
	for i := 0; i < 3; i++ {
		assert.Equal(t, "conduct", c.Classify("", "harassment and discrimination reporting"))
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewKeywordClassifier()
	assert.Equal(t, "work-policies", c.Classify("REMOTE-WORK.PDF", ""))
	assert.Equal(t, "performance", c.Classify("", "Performance Review cycles"))
}

func TestLabels(t *testing.T) {
	want := []string{"benefits", "leave-policies", "work-policies", "performance", "conduct", "compensation"}
	assert.Equal(t, want, Labels())
}
