package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/domain"
)

const forwardedPlain = `-------- Пересылаемое сообщение --------

07.02.2020, 10:00, "Иван" <ivan@example.org>:

> Открытие парка

Вчера открылся парк.
Пришли все.

-------- Конец пересылаемого сообщения --------

С уважением`

func TestForwardedTextPlain(t *testing.T) {
	t.Parallel()

	text, err := ForwardedText("Fwd: Открытие парка", forwardedPlain, false)
	require.NoError(t, err)
	require.Equal(t, "Открытие парка\nВчера открылся парк. Пришли все.", text)
}

func TestForwardedTextHTML(t *testing.T) {
	t.Parallel()

	body := `<div>-------- Пересылаемое сообщение --------</div>
	<div>07.02.2020, 10:00, "Иван" &lt;ivan@example.org&gt;:</div>
	<div>Заголовок</div><div>Текст новости.</div>
	<div>\-- </div><div>подпись</div>`

	text, err := ForwardedText("FWD: новость", body, true)
	require.NoError(t, err)
	require.Equal(t, "Заголовок\nТекст новости.", text)
}

func TestForwardedTextRequiresMarker(t *testing.T) {
	t.Parallel()

	_, err := ForwardedText("Новость", forwardedPlain, false)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindPrepare, kind)
}

func TestForwardedBodyLinesRestartsAfterAddress(t *testing.T) {
	t.Parallel()

	lines := []string{"head", "a@b", "one", `\stop`, "skip", "c@d", "two"}
	require.Equal(t, []string{"one", "two"}, forwardedBodyLines(lines))
}
