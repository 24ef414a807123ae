// Package texts holds every user-facing string of the bot.
package texts

import "fmt"

const (
	Greeting   = "Привет! Я бот для объявлений по Пльзеню и окрестностям.\n\nВыберите действие:"
	IdleMenu   = "Выберите действие:"
	ButtonAdd  = "➕ Добавить объявление"
	ButtonList = "🔍 Посмотреть объявления"
	ButtonStop = "✖️ Отмена"

	ChooseCategory   = "Выберите категорию:"
	UnknownCategory  = "Пожалуйста, выберите категорию кнопкой ниже."
	EnterTitle       = "Введите заголовок объявления:"
	EnterDescription = "Теперь введите описание:"
	EnterContact     = "Укажите контактную информацию (телефон, Telegram и т.п.):"

	Submitted  = "Объявление успешно добавлено! Спасибо!"
	Cancelled  = "Добавление объявления отменено."
	NoListings = "Объявлений пока нет."
	Failure    = "Не удалось обработать запрос. Попробуйте ещё раз чуть позже."
	TooFast    = "Слишком часто. Подождите секунду."

	CardCategory    = "Категория"
	CardPrice       = "Цена"
	CardDescription = "Описание"
	CardContact     = "Контакт"
	CardAdded       = "Добавлено"
)

// EnterPrice asks for the price in the given currency.
func EnterPrice(currency string) string {
	return fmt.Sprintf("Укажите цену (в %s):", currency)
}

// SendPhoto asks for a single picture or the skip keyword.
func SendPhoto(skip string) string {
	return fmt.Sprintf("Пришлите фото (одну картинку) или пропустите, написав '%s':", skip)
}

// PhotoOrSkip re-prompts the photo step.
func PhotoOrSkip(skip string) string {
	return fmt.Sprintf("Пожалуйста, отправьте фото или напишите '%s'.", skip)
}

// QuotaReached reports the exhausted daily limit.
func QuotaReached(limit int) string {
	return fmt.Sprintf("Вы уже добавили %d %s сегодня. Попробуйте снова завтра.", limit, plural(limit, "объявление", "объявления", "объявлений"))
}

func plural(n int, one, few, many string) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
