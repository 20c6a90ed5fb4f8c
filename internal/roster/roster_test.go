package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalsdr-engine/internal/domain"
)

func TestReadCSV(t *testing.T) {
	in := "company,domain,careers_url,news_url\n" +
		"Acme, https://www.Acme.com/ ,https://acme.com/careers,\n" +
		",beta.io,https://beta.io/jobs,\n" +
		"Gamma,,https://gamma.io/jobs,\n" +
		"Delta,delta.com,,https://delta.com/news\n" +
		"Acme Again,acme.com,,\n"

	r, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, r.Targets, 2)
	assert.Equal(t, domain.Target{Name: "Acme", Domain: "acme.com", CareersURL: "https://acme.com/careers"}, r.Targets[0])
	assert.Equal(t, "https://delta.com/news", r.Targets[1].NewsURL)
	assert.Equal(t, "delta.com", r.Targets[1].Key())

	require.Len(t, r.Rejected, 3)
	assert.Equal(t, 2, r.Rejected[0].Row)
	assert.ErrorIs(t, r.Rejected[0], domain.ErrMalformedInput)
	assert.Contains(t, r.Rejected[2].Error(), "duplicate of row 1")
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,url\nAcme,acme.com\n"))
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestReadCSVWithIDColumnAndShortRows(t *testing.T) {
	in := "id,company,domain,careers_url\nacme,Acme,acme.com\n"
	r, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, r.Targets, 1)
	assert.Equal(t, "acme", r.Targets[0].Key())
	assert.Empty(t, r.Targets[0].CareersURL)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
targets:
  - company: Acme
    domain: acme.com
    careers_url: https://acme.com/careers
    news_url: https://acme.com/news
  - company: NoDomain
`), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	require.Len(t, r.Targets, 1)
	assert.Equal(t, "https://acme.com/news", r.Targets[0].NewsURL)
	require.Len(t, r.Rejected, 1)

	got, ok := r.Find("www.acme.com")
	assert.True(t, ok)
	assert.Equal(t, "Acme", got.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
