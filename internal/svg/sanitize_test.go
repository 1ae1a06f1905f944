package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_Documents(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantOutcome Outcome
		wantOutput  string
		wantReason  string
	}{
		{
			name:        "script element removed",
			input:       `<svg><script>alert(1)</script></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg></svg>`,
		},
		{
			name:        "clean document unchanged",
			input:       `<svg width="10"></svg>`,
			wantOutcome: Accepted,
			wantOutput:  `<svg width="10"></svg>`,
		},
		{
			name:        "no svg marker",
			input:       `not an svg`,
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name: "nested script blocks across lines",
			input: "<svg>\n<script type=\"text/javascript\">\n<script>\nalert(1)\n</script>\n</script>\n" +
				"<circle r=\"1\"/>\n<SCRIPT>alert(2)</SCRIPT></svg>",
			wantOutcome: AcceptedModified,
			wantOutput:  "<svg>\n\n<circle r=\"1\"/>\n</svg>",
		},
		{
			name:        "event attribute removed",
			input:       `<svg><rect onclick="alert(1)" width="1"/></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg><rect width="1"/></svg>`,
		},
		{
			name:        "event attribute on root",
			input:       `<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"><g/></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`,
		},
		{
			name:        "tag-shaped onclick and onload",
			input:       `<svg><onclick x="1">a</onclick><onload>b</onload><g/></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg><g/></svg>`,
		},
		{
			name:        "javascript href",
			input:       `<svg xmlns:xlink="http://www.w3.org/1999/xlink"><a xlink:href=" java&#x09;script:alert(1)"><text>x</text></a></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg xmlns:xlink="http://www.w3.org/1999/xlink"><a><text>x</text></a></svg>`,
		},
		{
			name:        "fragment href kept",
			input:       `<svg><use href="#icon"/></svg>`,
			wantOutcome: Accepted,
			wantOutput:  `<svg><use href="#icon"/></svg>`,
		},
		{
			name:        "foreignObject removed",
			input:       `<svg><foreignObject><div xmlns="http://www.w3.org/1999/xhtml">hi</div></foreignObject></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg></svg>`,
		},
		{
			name:        "animation rewriting href",
			input:       `<svg><a><set attributeName="href" to="javascript:alert(1)"/><text>x</text></a></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg><a><text>x</text></a></svg>`,
		},
		{
			name:        "harmless animation kept",
			input:       `<svg><rect><animate attributeName="x" from="0" to="10" dur="1s"/></rect></svg>`,
			wantOutcome: Accepted,
			wantOutput:  `<svg><rect><animate attributeName="x" from="0" to="10" dur="1s"/></rect></svg>`,
		},
		{
			name:        "external animation reference",
			input:       `<svg><animate href="https://evil.example/x.svg#a" attributeName="x"/></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg></svg>`,
		},
		{
			name:        "stylesheet processing instruction",
			input:       "<?xml version=\"1.0\"?><?xml-stylesheet href=\"x.xsl\" type=\"text/xsl\"?><svg/>",
			wantOutcome: AcceptedModified,
			wantOutput:  "<?xml version=\"1.0\"?><svg/>",
		},
		{
			name:        "style element with script url",
			input:       `<svg><style>rect { background: url("javascript:alert(1)") }</style><rect/></svg>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg><rect/></svg>`,
		},
		{
			name:        "plain style element kept",
			input:       `<svg><style>rect { fill: red }</style></svg>`,
			wantOutcome: Accepted,
			wantOutput:  `<svg><style>rect { fill: red }</style></svg>`,
		},
		{
			name:        "cdata script body",
			input:       "<svg><script><![CDATA[ if (a < b && c) {} ]]></script></svg>",
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg></svg>`,
		},
		{
			name:        "malformed xml",
			input:       `<svg><g></svg>`,
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name:        "unclosed root",
			input:       `<svg><rect/>`,
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name:        "root is not svg",
			input:       `<html><svg></svg></html>`,
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name:        "second root element",
			input:       `<svg></svg><script>alert(1)</script>`,
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name:        "unsupported encoding",
			input:       `<?xml version="1.0" encoding="ISO-8859-1"?><svg></svg>`,
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name:        "invalid utf-8",
			input:       "<svg>\xff\xfe</svg>",
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
		{
			name:        "doctype attlist default event handler",
			input:       `<!DOCTYPE svg [<!ATTLIST svg onload CDATA "alert(1)">]><svg xmlns="http://www.w3.org/2000/svg"/>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg xmlns="http://www.w3.org/2000/svg"/>`,
		},
		{
			name:        "doctype attlist on child element",
			input:       "<!DOCTYPE svg [\n<!ATTLIST rect onclick CDATA \"alert(1)\">\n]>\n<svg><rect/></svg>",
			wantOutcome: AcceptedModified,
			wantOutput:  "\n<svg><rect/></svg>",
		},
		{
			name:        "empty internal subset dropped",
			input:       `<!DOCTYPE svg []><svg/>`,
			wantOutcome: AcceptedModified,
			wantOutput:  `<svg/>`,
		},
		{
			name:        "external doctype kept",
			input:       `<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd"><svg/>`,
			wantOutcome: Accepted,
			wantOutput:  `<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd"><svg/>`,
		},
		{
			name:        "unknown entity",
			input:       "<!DOCTYPE svg [<!ENTITY x \"y\">]><svg>&x;</svg>",
			wantOutcome: Rejected,
			wantReason:  ReasonInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Sanitize([]byte(tt.input))

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			if tt.wantOutcome == Rejected {
				assert.Equal(t, tt.wantReason, res.Reason)
				assert.Nil(t, res.Bytes)
				return
			}
			assert.Equal(t, tt.wantOutput, string(res.Bytes))
			if tt.wantOutcome == AcceptedModified {
				assert.NotEmpty(t, res.Removed)
			}
		})
	}
}

func TestSanitize_KeepsBOMAndUntouchedBytes(t *testing.T) {
	input := "\xEF\xBB\xBF<svg   viewBox='0 0 1 1'>\n  <!-- keep me -->\n  <path d=\"M0 0\" onmouseover='x()'/>\n</svg>"

	res := Sanitize([]byte(input))

	require.Equal(t, AcceptedModified, res.Outcome)
	assert.Equal(t, "\xEF\xBB\xBF<svg   viewBox='0 0 1 1'>\n  <!-- keep me -->\n  <path d=\"M0 0\"/>\n</svg>", string(res.Bytes))
	assert.Equal(t, []string{"attribute onmouseover on <path>"}, res.Removed)
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		`<svg><script>alert(1)</script></svg>`,
		`<svg onload="x"><rect onclick="y" fill="url(#g)"/><a href="javascript:z"/></svg>`,
		`<svg><set attributeName="onclick" to="alert(1)"/><circle r="2"/></svg>`,
		`<svg width="10"></svg>`,
	}

	for _, in := range inputs {
		first := Sanitize([]byte(in))
		require.True(t, first.Outcome.Safe(), in)

		second := Sanitize(first.Bytes)
		assert.Equal(t, Accepted, second.Outcome, in)
		assert.Equal(t, string(first.Bytes), string(second.Bytes), in)
	}
}

func TestSanitize_NeverKeepsScript(t *testing.T) {
	inputs := []string{
		`<svg><script>a</script><g><script xlink:href="x.js"/></g></svg>`,
		"<svg>\n<Script>\nb\n</Script>\n</svg>",
		`<svg xmlns:s="http://www.w3.org/2000/svg"><s:script>c</s:script></svg>`,
	}

	for _, in := range inputs {
		res := Sanitize([]byte(in))
		require.Equal(t, AcceptedModified, res.Outcome, in)
		assert.NotContains(t, strings.ToLower(string(res.Bytes)), "script", in)
	}
}

func TestSanitizeLegacy(t *testing.T) {
	t.Run("strips tag-shaped patterns in order", func(t *testing.T) {
		res := SanitizeLegacy([]byte("<svg><script>a</script><onclick>b</onclick><ONLOAD x>\nc\n</onload></svg>"))

		assert.Equal(t, AcceptedModified, res.Outcome)
		assert.Equal(t, "<svg></svg>", string(res.Bytes))
		assert.Len(t, res.Removed, 3)
	})

	t.Run("reports modified even when nothing matched", func(t *testing.T) {
		res := SanitizeLegacy([]byte(`<svg width="10"></svg>`))

		assert.Equal(t, AcceptedModified, res.Outcome)
		assert.Equal(t, `<svg width="10"></svg>`, string(res.Bytes))
	})

	t.Run("attribute handlers survive", func(t *testing.T) {
		res := SanitizeLegacy([]byte(`<svg><rect onclick="x"/></svg>`))

		assert.Contains(t, string(res.Bytes), "onclick")
	})

	t.Run("rejects missing marker", func(t *testing.T) {
		res := SanitizeLegacy([]byte("not an svg"))

		assert.Equal(t, Rejected, res.Outcome)
		assert.Equal(t, ReasonInvalid, res.Reason)
	})
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	m, err = ParseMode(" Legacy ")
	assert.NoError(t, err)
	assert.Equal(t, ModeLegacy, m)

	_, err = ParseMode("lenient")
	assert.Error(t, err)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "accepted_modified", AcceptedModified.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
