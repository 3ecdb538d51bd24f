package issue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsComplete(t *testing.T) {
	all := Kinds()
	require.NotEmpty(t, all)

	seen := make(map[Kind]bool)
	for _, k := range all {
		assert.False(t, seen[k], "kind %s listed twice", k)
		seen[k] = true

		m, ok := Lookup(k)
		require.True(t, ok, "kind %s", k)
		assert.NotEqual(t, len(Categories), m.Category.Rank(), "kind %s has unknown category", k)
	}
}

func TestKindsFollowCategoryOrder(t *testing.T) {
	all := Kinds()
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Category() == cur.Category() {
			assert.Less(t, prev.Priority(), cur.Priority())
		} else {
			assert.Less(t, prev.Category().Rank(), cur.Category().Rank())
		}
	}
}

func TestFixedClassification(t *testing.T) {
	tests := []struct {
		kind     Kind
		category Category
		severity Severity
	}{
		{MissingTitle, CategoryContent, High},
		{MissingViewport, CategoryTechnical, Critical},
		{MissingAlt, CategoryImageUX, Medium},
		{MissingImageDimensions, CategoryCWVPerformance, Medium},
		{HTTP5xx, CategoryAccess, Critical},
		{HTTP4xx, CategoryAccess, High},
		{HTTP3xx, CategoryAccess, Low},
		{NoRobots, CategoryAccess, Medium},
		{Soft404, CategoryIndexability, Critical},
		{Duplicate, CategoryIndexability, High},
		{InvalidHreflang, CategoryIndexability, High},
		{MissingXDefault, CategoryIndexability, Low},
		{URLUppercase, CategoryTechnical, Medium},
		{URLUnderscore, CategoryTechnical, Low},
		{JavascriptLinks, CategoryTechnical, High},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			i := New(tt.kind, "https://x.test/")
			assert.Equal(t, tt.category, i.Category)
			assert.Equal(t, tt.severity, i.Severity)
			assert.True(t, tt.kind.Valid())
		})
	}
}

func TestRobotsPrecedesFavicon(t *testing.T) {
	assert.Less(t, NoRobots.Category().Rank(), MissingFavicon.Category().Rank())
	assert.Less(t, NoRobots.Priority(), NoSitemap.Priority())
}

func TestUnknownKind(t *testing.T) {
	k := Kind("made_up")
	assert.False(t, k.Valid())
	assert.Equal(t, len(Kinds()), k.Priority())
	assert.Panics(t, func() { New(k, "https://x.test/") })
}

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, Critical.Rank(), High.Rank())
	assert.Less(t, High.Rank(), Medium.Rank())
	assert.Less(t, Medium.Rank(), Low.Rank())
	assert.Equal(t, "Medium", Medium.String())
	assert.Equal(t, "Severity(9)", Severity(9).String())

	s, err := ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, Critical, s)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)
}

func TestIssueJSON(t *testing.T) {
	i := New(MissingAlt, "https://x.test/a", "2").WithEvidence("2 images")
	data, err := json.Marshal(i)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"missing_alt","category":"image_ux","severity":"Medium","url":"https://x.test/a","evidence":"2 images","args":["2"]}`, string(data))
}

func TestSinkCopies(t *testing.T) {
	var s Sink
	s.Add(New(MissingH1, "https://x.test/"), New(MissingTitle, "https://x.test/"))
	assert.Equal(t, 2, s.Len())

	got := s.Issues()
	got[0].URL = "changed"
	assert.Equal(t, "https://x.test/", s.Issues()[0].URL)
}
