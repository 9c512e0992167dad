// Package texts holds the ru/en string table for all user-facing replies.
package texts

import "strings"

// DefaultLang is used when the user's language is unknown or unsupported.
const DefaultLang = "ru"

// T returns the string for key in lang, falling back to DefaultLang.
func T(lang, key string) string {
	entry, ok := table[key]
	if !ok {
		return key
	}
	if s, ok := entry[lang]; ok {
		return s
	}
	return entry[DefaultLang]
}

// Tf renders T(lang, key) with {name} placeholders replaced pairwise:
// Tf(lang, key, "n", "30", "nickname", "someuser").
func Tf(lang, key string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(T(lang, key))
}

var table = map[string]map[string]string{
	"start": {
		"ru": "Привет! Я помогу проанализировать аккаунты и хэштеги и придумать идеи для контента. Выберите действие в меню.",
		"en": "Hi! I can analyze accounts and hashtags and suggest content ideas. Pick an action from the menu.",
	},
	"menu.title": {
		"ru": "Главное меню",
		"en": "Main menu",
	},
	"menu.analyze_account": {
		"ru": "📊 Анализ аккаунта",
		"en": "📊 Analyze account",
	},
	"menu.analyze_hashtag": {
		"ru": "#️⃣ Анализ хэштега",
		"en": "#️⃣ Analyze hashtag",
	},
	"menu.generate_ideas": {
		"ru": "💡 Идеи для контента",
		"en": "💡 Content ideas",
	},
	"admin_menu.title": {
		"ru": "Меню администратора",
		"en": "Admin menu",
	},
	"admin_menu.send_message": {
		"ru": "📣 Рассылка",
		"en": "📣 Broadcast",
	},
	"admin_menu.add_admin": {
		"ru": "👤 Добавить админа",
		"en": "👤 Add admin",
	},
	"admin_menu.export_data": {
		"ru": "📦 Экспорт данных",
		"en": "📦 Export data",
	},
	"cancel": {
		"ru": "Отмена",
		"en": "Cancel",
	},
	"cancelled": {
		"ru": "Действие отменено.",
		"en": "Action cancelled.",
	},
	"error": {
		"ru": "Что-то пошло не так. Попробуйте ещё раз.",
		"en": "Something went wrong. Please try again.",
	},
	"no_rights": {
		"ru": "У вас нет прав для этого действия.",
		"en": "You do not have permission for this action.",
	},

	"analyze_account.enter_nickname": {
		"ru": "Введите ник аккаунта (без @):",
		"en": "Enter the account nickname (without @):",
	},
	"analyze_account.no_found": {
		"ru": "Аккаунт не найден. Проверьте ник и попробуйте снова:",
		"en": "Account not found. Check the nickname and try again:",
	},
	"analyze_account.private_account": {
		"ru": "Этот аккаунт закрытый, анализ недоступен.",
		"en": "This account is private, analysis is unavailable.",
	},
	"analyze_account.ask_number_videos": {
		"ru": "Сколько последних видео проанализировать?",
		"en": "How many recent videos should I analyze?",
	},
	"analyze_account.received": {
		"ru": "Принято! Собираю данные, это может занять минуту…",
		"en": "Got it! Collecting data, this may take a minute…",
	},
	"analyze_account.result_ready": {
		"ru": "Готово! Анализ {n} видео аккаунта @{nickname}:",
		"en": "Done! Analysis of {n} videos of @{nickname}:",
	},
	"analyze_account.results": {
		"ru": "👁 {views} просмотров\n❤️ {likes} лайков ({likes_comparative})\n💬 {comments} комментариев ({comments_comparative})\n🔗 {link}",
		"en": "👁 {views} views\n❤️ {likes} likes ({likes_comparative})\n💬 {comments} comments ({comments_comparative})\n🔗 {link}",
	},
	"analyze_account.comparative_more": {
		"ru": "на {value} больше среднего",
		"en": "{value} above average",
	},
	"analyze_account.comparative_less": {
		"ru": "на {value} меньше среднего",
		"en": "{value} below average",
	},

	"analyze_hashtag.enter_hashtag": {
		"ru": "Введите хэштег (без #):",
		"en": "Enter the hashtag (without #):",
	},
	"analyze_hashtag.no_found": {
		"ru": "По этому хэштегу ничего не найдено. Попробуйте другой:",
		"en": "Nothing found for this hashtag. Try another one:",
	},
	"analyze_hashtag.received": {
		"ru": "Принято! Собираю топ видео по хэштегу…",
		"en": "Got it! Collecting top videos for the hashtag…",
	},
	"analyze_hashtag.result_ready": {
		"ru": "Готово! Топ {n} видео по хэштегу #{hashtag}:",
		"en": "Done! Top {n} videos for #{hashtag}:",
	},
	"analyze_hashtag.results": {
		"ru": "{idx}. 👁 {views} просмотров, ❤️ {likes}, 💬 {comments}\n🔗 {link}",
		"en": "{idx}. 👁 {views} views, ❤️ {likes}, 💬 {comments}\n🔗 {link}",
	},
	"analyze_hashtag.ask_number_videos": {
		"ru": "Сколько видео показать?",
		"en": "How many videos should I show?",
	},
	"show_next_videos": {
		"ru": "Показать ещё",
		"en": "Show more",
	},
	"no_more_videos": {
		"ru": "Больше видео нет.",
		"en": "No more videos.",
	},

	"generate_ideas.enter_query": {
		"ru": "О чём нужны идеи? Опишите тему:",
		"en": "What should the ideas be about? Describe the topic:",
	},
	"generate_ideas.more": {
		"ru": "Ещё идеи",
		"en": "More ideas",
	},
	"generate_ideas.more_request": {
		"ru": "Предложи ещё идеи на эту же тему, не повторяя предыдущие.",
		"en": "Suggest more ideas on the same topic without repeating the previous ones.",
	},

	"enter_datetime_prompt": {
		"ru": "Введите дату и время отправки в формате ГГГГ-ММ-ДД ЧЧ:ММ (часовой пояс {timezone}):",
		"en": "Enter the send date and time as YYYY-MM-DD HH:MM (timezone {timezone}):",
	},
	"invalid_datetime_format": {
		"ru": "Неверный формат даты.",
		"en": "Invalid date format.",
	},
	"past_datetime_error": {
		"ru": "Эта дата уже в прошлом.",
		"en": "That date is already in the past.",
	},
	"record_message_prompt": {
		"ru": "Теперь отправьте текст сообщения для рассылки:",
		"en": "Now send the message text to broadcast:",
	},
	"message_scheduled_confirmation": {
		"ru": "Сообщение запланировано для {n_users} пользователей на {send_datetime} ({timezone}).",
		"en": "Message scheduled for {n_users} users at {send_datetime} ({timezone}).",
	},

	"add_admin.enter_username": {
		"ru": "Введите username нового администратора:",
		"en": "Enter the new admin's username:",
	},
	"add_admin.enter_user_id": {
		"ru": "Введите Telegram ID нового администратора:",
		"en": "Enter the new admin's Telegram ID:",
	},
	"add_admin.invalid_user_id": {
		"ru": "ID должен быть числом. Попробуйте ещё раз:",
		"en": "The ID must be a number. Try again:",
	},
	"add_admin_confirm": {
		"ru": "Пользователь {username} (ID {user_id}) назначен администратором.",
		"en": "User {username} (ID {user_id}) is now an admin.",
	},

	"download_report": {
		"ru": "Скачать отчёт",
		"en": "Download the report",
	},
	"export.ready": {
		"ru": "Экспорт данных готов.",
		"en": "Data export is ready.",
	},
}
