package chm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
)

func TestDefaultLanguageTable(t *testing.T) {
	table := chm.DefaultLanguageTable()

	en, ok := table.Lookup(1033)
	require.True(t, ok)
	assert.Equal(t, chm.UTF8Codepage, en.Codepage)

	ja, ok := table.Lookup(1041)
	require.True(t, ok)
	assert.Equal(t, 932, ja.Codepage)
	assert.Equal(t, "shift_jis", ja.Charset)

	_, ok = table.Lookup(9999)
	assert.False(t, ok)

	ids := table.LCIDs()
	assert.Len(t, ids, table.Len())
	assert.IsIncreasing(t, ids)
}

func TestParseConfig(t *testing.T) {
	data := []byte(`<configuration>
  <hhpTemplate>
    <line>[OPTIONS]</line>
    <line>Title={3}</line>
  </hhpTemplate>
  <languages>
    <language id="1041" codepage="932" name="0x411 Japanese" charset="Shift_JIS" />
    <language id="1111" codepage="1252" name="0x457 Konkani" charset="windows-1252" />
  </languages>
</configuration>`)

	cfg, err := chm.ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"[OPTIONS]", "Title={3}"}, cfg.HHPTemplate)

	ja, ok := cfg.Languages.Lookup(1041)
	require.True(t, ok)
	assert.Equal(t, "shift_jis", ja.Charset)

	added, ok := cfg.Languages.Lookup(1111)
	require.True(t, ok)
	assert.Equal(t, 1252, added.Codepage)

	_, ok = cfg.Languages.Lookup(1031)
	assert.True(t, ok, "built-in languages stay available")
}

func TestParseConfig_DefaultTemplate(t *testing.T) {
	cfg, err := chm.ParseConfig([]byte(`<configuration><languages /></configuration>`))
	require.NoError(t, err)
	assert.Equal(t, chm.DefaultHHPTemplate, cfg.HHPTemplate)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "configuration"},
		{"bad id", `<configuration><languages><language id="x" codepage="1252" /></languages></configuration>`},
		{"bad codepage", `<configuration><languages><language id="1031" codepage="" /></languages></configuration>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chm.ParseConfig([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chmBuilder.config")
	require.NoError(t, os.WriteFile(path, []byte(`<configuration><languages><language id="1049" codepage="1251" name="ru" charset="windows-1251"/></languages></configuration>`), 0644))

	cfg, err := chm.LoadConfig(path)
	require.NoError(t, err)
	ru, ok := cfg.Languages.Lookup(1049)
	require.True(t, ok)
	assert.Equal(t, "ru", ru.Name)

	_, err = chm.LoadConfig(filepath.Join(t.TempDir(), "missing.config"))
	assert.Error(t, err)
}
