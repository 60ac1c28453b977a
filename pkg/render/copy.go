package render

const (
	ButtonGetPrice         = "💰 Узнать цену"
	ButtonLocation         = "📍 Как нас найти"
	ButtonShowPhoto        = "📷 Фото"
	ButtonMorePhotos       = "📷 Ещё фото"
	ButtonShowVideo        = "🎬 Видео"
	ButtonBackToMain       = "⬆️ Главное меню"
	ButtonBackToApartments = "⬅️ Назад к квартирам"
	ButtonPaymentSchedule  = "📅 График платежей"
)

const (
	textChooseApartment   = "Выберите квартиру, чтобы рассчитать стоимость:"
	textChooseDownPayment = "%s\nСтоимость: %s %s\n\nВыберите размер первоначального взноса:"
	textVenue             = "Ждём вас в офисе продаж жилого комплекса."
	textVideo             = "Видеообзор жилого комплекса:"
	textPhotoCaption      = "Фото %d из %d"
	textGalleryEmpty      = "Фотографии скоро появятся."

	textCalculation = `%s
Стоимость: %s %s
Первоначальный взнос %s%%: %s %s
Остаток: %s %s
Ежемесячный платёж на %d мес.: %s %s`
)

const scheduleTemplate = `График платежей
{{.Label}}, взнос {{.Percent}}%
Стоимость: {{.Total}} {{.Currency}}

{{.StartDate}}: {{.DownPayment}} {{.Currency}} (первоначальный взнос)
{{range .Rows}}{{.Date}}: {{.Payment}} {{$.Currency}} (остаток {{.Balance}})
{{end}}`
