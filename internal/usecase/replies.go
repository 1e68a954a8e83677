package usecase

import (
	"fmt"
	"strings"

	"AutoPublisher/internal/domain"
)

const (
	replyGreeting      = "Привет, хозяин!"
	replyFallback      = "А больше я ничего и не умею!"
	replyCheckingMail  = "Проверяю почту..."
	replyMailFound     = "Есть письмо"
	replyCancelled     = "Отмена"
	replyError         = "Произошла ошибка!"
	replySendText      = "Кидай текст"
	replySendTitle     = "Кидай заголовок"
	replyNoImages      = "Картинок нет."
	replyPublishing    = "Публикуем"
	replyPublished     = "Опубликовано!"
	replyPreparing     = "Подготовка..."
	replyScheduleStart = "Публикуем расписание"
	replyBannerAsk     = "До какой даты или на какой срок сохранить картинку?"
	replyBannerUpload  = "Загружаем..."
	replyBannerDone    = "Готово!"
	replyUnknownDate   = "Неизвестная дата или интервал:"
	replyFileUploaded  = "Загружен файл: "
	replyArchiveUpload = "Архив загружен"
)

// Callback data of the inline buttons.
const (
	choiceNews     = "news"
	choiceSchedule = "rasp"
	choiceCancel   = "cancel"
	choiceYes      = "yes"
	choiceEdit     = "edit"
	choiceTitle    = "title"
	choicePublish  = "publish"
)

var cancelButton = domain.Button{Label: "Отмена", Data: choiceCancel}

var (
	classifyButtons = []domain.Button{
		{Label: "Новость", Data: choiceNews},
		{Label: "Расписание", Data: choiceSchedule},
		cancelButton,
	}
	reviewButtons = []domain.Button{
		{Label: "Да", Data: choiceYes},
		{Label: "Править текст", Data: choiceEdit},
		{Label: "Править заголовок", Data: choiceTitle},
		cancelButton,
	}
	publishButtons = []domain.Button{
		{Label: "Опубликовать", Data: choicePublish},
		cancelButton,
	}
)

func noMailReply(label string) string {
	return fmt.Sprintf("Новых писем от %s нет!", label)
}

func unsupportedImageReply(kinds []string) string {
	return fmt.Sprintf("Неподдерживаемый тип изображения. Поддерживаемые типы: %s. Отмена.", strings.Join(kinds, ", "))
}

func windowClosedReply(from, to int) string {
	return fmt.Sprintf("Расписание не публикуется с %d по %d число месяца. Письмо снова помечено непрочитанным.", from, to)
}

func imagesReply(images []string) string {
	if len(images) == 0 {
		return replyNoImages
	}
	var b strings.Builder
	writeNumbered(&b, images)
	return strings.TrimSuffix(b.String(), "\n")
}

// truncateTail keeps the last limit runes of s; the most specific part of
// a wrapped error is at its end.
func truncateTail(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[len(runes)-limit:])
}
