package texts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTFallsBackToDefaultLang(t *testing.T) {
	require.Equal(t, "Cancel", T("en", "cancel"))
	require.Equal(t, "Отмена", T("ru", "cancel"))
	require.Equal(t, "Отмена", T("de", "cancel"))
}

func TestTUnknownKeyReturnsKey(t *testing.T) {
	require.Equal(t, "no.such.key", T("en", "no.such.key"))
}

func TestTf(t *testing.T) {
	out := Tf("en", "analyze_account.result_ready", "n", "5", "nickname", "someuser")
	require.Equal(t, "Done! Analysis of 5 videos of @someuser:", out)
}

func TestEveryKeyHasBothLanguages(t *testing.T) {
	for key, entry := range table {
		require.NotEmpty(t, entry["ru"], "key %s missing ru", key)
		require.NotEmpty(t, entry["en"], "key %s missing en", key)
	}
}
