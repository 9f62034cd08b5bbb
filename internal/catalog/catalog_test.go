package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
)

const sampleCSV = `Subject,Number,Title,Description,CreditHours,DegreeAttributes
CS,225,Data Structures,Data abstractions and structures,4 hours,Quant Reasoning
CS,374,Introduction to Algorithms & Models of Computation,Algorithm design,4 hours,
CS,241,System Programming,Systems,4 hours,
MATH,241,Calculus III,Multivariable calculus,4 hours,
BAD,,,,,
`

func writeCatalog(t *testing.T, content string) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	cat := New(path, zap.NewNop())
	cat.Load()
	return cat
}

func TestCatalogValidate(t *testing.T) {
	cat := writeCatalog(t, sampleCSV)
	require.Equal(t, 5, cat.Len())

	require.NoError(t, cat.Validate("CS 225", "Data Structures"))
	// title comparison is case-insensitive
	require.NoError(t, cat.Validate("CS 225", "data structures"))

	err := cat.Validate("CS 225", "Algorithms")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, `"Data Structures"`)
}

func TestCatalogValidateFormat(t *testing.T) {
	cat := writeCatalog(t, sampleCSV)

	for _, code := range []string{"CS999", "", "   "} {
		err := cat.Validate(code, "X")
		require.Error(t, err, code)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestCatalogValidateNotFound(t *testing.T) {
	cat := writeCatalog(t, sampleCSV)

	err := cat.Validate("CS 999", "Anything")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// subject/number lookup is case-sensitive as stored
	err = cat.Validate("cs 225", "Data Structures")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogFailsOpenWhenFileMissing(t *testing.T) {
	cat := New(filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())
	cat.Load()
	require.Equal(t, 0, cat.Len())

	err := cat.Validate("CS 225", "Data Structures")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCatalogUnavailable.Code, appErrors.FromError(err).Code)
}

func TestCatalogList(t *testing.T) {
	cat := writeCatalog(t, sampleCSV)

	options := cat.List()
	// the row with empty number/title is filtered out
	require.Len(t, options, 4)
	assert.Equal(t, Option{Code: "CS 225", Name: "Data Structures", Subject: "CS"}, options[0])
	assert.Equal(t, "MATH 241", options[3].Code)
}

func TestCatalogSearch(t *testing.T) {
	cat := writeCatalog(t, sampleCSV)

	byCode := cat.Search("cs 2")
	require.Len(t, byCode, 2)

	byTitle := cat.Search("calculus")
	require.Len(t, byTitle, 1)
	assert.Equal(t, "MATH 241", byTitle[0].Code)

	assert.Len(t, cat.Search(""), 4)
	assert.Empty(t, cat.Search("no such course"))
}

func TestCatalogLookup(t *testing.T) {
	cat := writeCatalog(t, sampleCSV)

	entry, ok := cat.Lookup("CS 374")
	require.True(t, ok)
	assert.Equal(t, "Introduction to Algorithms & Models of Computation", entry.Title)

	_, ok = cat.Lookup("EE 101")
	assert.False(t, ok)
}
