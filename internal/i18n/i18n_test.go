package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestBundle_Match(t *testing.T) {
	b, err := New("en", []string{"en", "fr", "es"})
	require.NoError(t, err)

	tests := []struct {
		preferred string
		want      string
	}{
		{"fr", "fr"},
		{"fr-CA", "fr"},
		{"es-MX", "es"},
		{"de", "en"},
		{"", "en"},
		{"not a locale!", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.preferred, func(t *testing.T) {
			require.Equal(t, tt.want, b.Match(tt.preferred))
		})
	}
}

func TestBundle_Locales(t *testing.T) {
	b, err := New("en", []string{"fr"})
	require.NoError(t, err)

	require.Equal(t, []string{"fr", "en"}, b.Locales("fr"))
	require.Equal(t, []string{"en"}, b.Locales("en"))
	require.Equal(t, []string{"en"}, b.Locales("ja"))
	require.Equal(t, []string{"en", "fr"}, b.Supported())
}

func TestBundle_Printer(t *testing.T) {
	b, err := New("en", []string{"fr", "es"})
	require.NoError(t, err)

	const key = "Notification for %s about %s"
	require.Equal(t, "Notification pour Ana concernant claim", b.Printer("fr").Sprintf(key, "Ana", "claim"))
	require.Equal(t, "Notificación para Ana sobre claim", b.Printer("es").Sprintf(key, "Ana", "claim"))
	require.Equal(t, "Notification for Ana about claim", b.Printer("en").Sprintf(key, "Ana", "claim"))
	// unsupported locale prints in base
	require.Equal(t, "Notification for Ana about claim", b.Printer("ja").Sprintf(key, "Ana", "claim"))
}

func TestBundle_PrintersAreIndependent(t *testing.T) {
	b, err := New("en", []string{"fr"})
	require.NoError(t, err)

	fr := b.Printer("fr")
	en := b.Printer("en")
	require.Equal(t, "Voir la notification", fr.Sprintf("View notification"))
	require.Equal(t, "View notification", en.Sprintf("View notification"))
	require.Equal(t, "en", b.Base())
}

func TestNewBundle_InvalidCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/fr.yaml": &fstest.MapFile{Data: []byte("- not\n- a map\n")},
	}
	_, err := newBundle(fsys, "locales", "en", []string{"fr"})
	require.Error(t, err)
}

func TestNew_InvalidBase(t *testing.T) {
	_, err := New("??", nil)
	require.Error(t, err)
}
