package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_CleansKeywords(t *testing.T) {
	m, cleaned := Build([]string{"  CAD ", "", "   ", "heart failure"})
	require.NotNil(t, m)
	assert.Equal(t, []string{"CAD", "heart failure"}, cleaned)
	assert.Equal(t, cleaned, m.Keywords())
}

func TestBuild_EmptyListNeverMatches(t *testing.T) {
	m, cleaned := Build(nil)
	require.NotNil(t, m)
	assert.Empty(t, cleaned)
	assert.False(t, m.Match(""))
	assert.False(t, m.Match("anything at all"))
	assert.Nil(t, m.Find("cardiac arrest", 10))
}

func TestMatcher_NeverMatchesEmptyString(t *testing.T) {
	m, _ := Build([]string{"MI", "heart failure", "心脏病"})
	assert.False(t, m.Match(""))
}

func TestMatcher_CJKSubstring(t *testing.T) {
	m, _ := Build([]string{"心脏病"})
	assert.True(t, m.Match("患有心脏病史"))
	assert.Equal(t, []string{"心脏病"}, m.Find("患有心脏病史", 5))
	assert.False(t, m.Match("心肌梗死"))
}

func TestMatcher_ShortLatinTokenBoundary(t *testing.T) {
	m, _ := Build([]string{"MI"})
	assert.True(t, m.Match("suspected MI after exertion"))
	assert.False(t, m.Match("moved to Miami last year"))
	assert.True(t, m.Match("MI."))
	assert.True(t, m.Match("(MI)"))
}

func TestMatcher_AcronymCaseInsensitive(t *testing.T) {
	m, _ := Build([]string{"CAD"})
	for _, text := range []string{"cad", "Cad", "CAD", "history of cad,"} {
		assert.True(t, m.Match(text), "should match %q", text)
	}
	assert.False(t, m.Match("cascade"))
	assert.False(t, m.Match("arcade"))
}

func TestMatcher_PhraseFlexibleWhitespace(t *testing.T) {
	m, _ := Build([]string{"heart failure"})
	assert.True(t, m.Match("chronic heart failure"))
	assert.True(t, m.Match("heart   failure"))
	assert.True(t, m.Match("heart\n\tfailure"))
	assert.False(t, m.Match("failure heart"))
	assert.False(t, m.Match("heart and failure"))
	assert.False(t, m.Match("heartfailure"))
}

func TestMatcher_SingleLongTokenNoBoundary(t *testing.T) {
	// Long lowercase tokens match as substrings, mirroring the loose
	// matching wanted for stems like "valvular" in "supravalvular".
	m, _ := Build([]string{"cardio"})
	assert.True(t, m.Match("cardiology consult"))
	assert.True(t, m.Match("echocardiogram"))
}

func TestMatcher_FindReturnsVerbatimHitsInOrder(t *testing.T) {
	m, _ := Build([]string{"STEMI", "heart failure"})
	hits := m.Find("Heart Failure complicated by stemi, then STEMI again", 10)
	assert.Equal(t, []string{"Heart Failure", "stemi", "STEMI"}, hits)
}

func TestMatcher_FindRespectsMaxHits(t *testing.T) {
	m, _ := Build([]string{"MI"})
	hits := m.Find("MI MI MI MI MI", 3)
	assert.Len(t, hits, 3)
	assert.Nil(t, m.Find("MI", 0))
}

func TestDefaults(t *testing.T) {
	assert.Len(t, Defaults(LangEN), len(DefaultEN))
	assert.Len(t, Defaults(LangZH), len(DefaultZH))
	assert.Len(t, Defaults(LangBoth), len(DefaultEN)+len(DefaultZH))

	m, cleaned := Build(Defaults(LangBoth))
	assert.NotEmpty(t, cleaned)
	assert.True(t, m.Match("presenting with atrial   fibrillation"))
	assert.True(t, m.Match("患者出现心绞痛症状"))
}

func TestValidLanguage(t *testing.T) {
	assert.True(t, ValidLanguage(LangEN))
	assert.True(t, ValidLanguage(LangZH))
	assert.True(t, ValidLanguage(LangBoth))
	assert.False(t, ValidLanguage("fr"))
}
