package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransliterate(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Жук":          "Zhuk",
		"ЖУК":          "ZHUK",
		"Щука и ёж":    "Schuka i ezh",
		"Объявление":   "Obyavlenie",
		"Photo":        "Photo",
		"Юбилей школы": "Yubiley shkoly",
	}
	for in, want := range cases {
		require.Equal(t, want, Transliterate(in), in)
	}
}

func TestTransliterateNormalizesDecomposedLetters(t *testing.T) {
	t.Parallel()

	// "й" written as "и" + combining breve
	require.Equal(t, "y", Transliterate("\u0438\u0306"))
}

func TestFormatImageName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "otkrytie_parka__1_.jpg", FormatImageName("Открытие парка (1).JPG"))
	require.Equal(t, "img_0001.jpeg", FormatImageName("IMG 0001.jpeg"))
	require.Equal(t, "café_і.png", FormatImageName("Café і.PNG"))
}

func TestUniqueNameAddsCounter(t *testing.T) {
	t.Parallel()

	used := map[string]struct{}{}
	require.Equal(t, "foto.jpg", UniqueName(used, "foto.jpg"))
	require.Equal(t, "foto_2.jpg", UniqueName(used, "foto.jpg"))
	require.Equal(t, "foto_3.jpg", UniqueName(used, "foto.jpg"))
	require.Equal(t, "other.jpg", UniqueName(used, "other.jpg"))
}
