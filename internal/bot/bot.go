package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"day-planner/internal/export"
	"day-planner/internal/model"
	"day-planner/internal/repository"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

type userRecorder interface {
	Upsert(ctx context.Context, identity model.User) (*model.User, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api         *tgbotapi.BotAPI
	userRepo    userRecorder
	registry    *store.Registry
	categorySvc *service.CategoryService
	taskSvc     *service.TaskService
	reminderSvc *service.ReminderService
	sessions    *sessions
	now         func() time.Time
}

func New(token string, userRepo *repository.UserRepository, registry *store.Registry, categorySvc *service.CategoryService, taskSvc *service.TaskService, reminderSvc *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := &Bot{
		api:         api,
		registry:    registry,
		categorySvc: categorySvc,
		taskSvc:     taskSvc,
		reminderSvc: reminderSvc,
		now:         time.Now,
	}
	if userRepo != nil {
		b.userRepo = userRepo
	}
	b.sessions = newSessions(func() string { return model.FormatDate(b.now()) })
	return b, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

// RolloverDays moves every chat back to today. Scheduled at midnight.
func (b *Bot) RolloverDays() {
	n := b.sessions.resetDates()
	log.Printf("[info] day rollover reset=%d", n)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.sessions.clearDialogs(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if pending, ok := b.sessions.confirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.sessions.conversation(msg.From.ID); state != nil {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		b.sessions.setDate(msg.From.ID, model.FormatDate(b.now()))
		return b.sendDay(ctx, msg.Chat.ID, msg.From)
	case "day":
		return b.handleDayCommand(ctx, msg)
	case "prev":
		return b.shiftDay(ctx, msg.Chat.ID, msg.From, -1)
	case "next":
		return b.shiftDay(ctx, msg.Chat.ID, msg.From, 1)
	case "filter":
		return b.handleFilter(ctx, msg)
	case "newtask":
		return b.startTaskConversation(ctx, msg, "")
	case "edit":
		return b.handleEdit(ctx, msg)
	case "move":
		return b.handleMove(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "newcategory":
		return b.handleNewCategory(ctx, msg)
	case "ics":
		return b.handleICS(ctx, msg)
	case "cancel":
		b.sessions.clearDialogs(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	b.recordUser(ctx, msg.From)
	if _, err := b.workspace(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я планировщик дня: раскладываю задачи по часам с 08:00 до 22:00.</b>\n\n"+
			"Набери /newtask, чтобы добавить задачу, /today, чтобы посмотреть день, или /help для всех команд.",
		escape(name),
	)
	if err := b.sendText(msg.Chat.ID, text); err != nil {
		return err
	}
	return b.sendDay(ctx, msg.Chat.ID, msg.From)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /today — задачи на сегодня\n" +
		"• /day &lt;ГГГГ-ММ-ДД&gt; — открыть другой день\n" +
		"• /prev, /next — предыдущий и следующий день\n" +
		"• /filter &lt;категория|all&gt; — показать только одну категорию\n" +
		"• /newtask — добавить задачу пошагово\n" +
		"• /edit &lt;id&gt; — изменить задачу\n" +
		"• /move &lt;id&gt; [ГГГГ-ММ-ДД] &lt;ЧЧ:ММ&gt; — перенести задачу\n" +
		"• /done &lt;id&gt; — отметить выполненной или вернуть в работу\n" +
		"• /delete &lt;id&gt; — удалить задачу\n" +
		"• /categories — список категорий\n" +
		"• /newcategory &lt;название&gt; [#цвет] — новая категория\n" +
		"• /ics — выгрузить день в календарь\n" +
		"• /cancel — отменить текущий ввод"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleDayCommand(ctx context.Context, msg *tgbotapi.Message) error {
	date := strings.TrimSpace(msg.CommandArguments())
	if !model.IsDate(date) {
		return b.sendText(msg.Chat.ID, "Укажи дату в формате <code>2025-11-30</code>: /day 2025-11-30")
	}
	b.sessions.setDate(msg.From.ID, date)
	return b.sendDay(ctx, msg.Chat.ID, msg.From)
}

func (b *Bot) shiftDay(ctx context.Context, chatID int64, from *tgbotapi.User, days int) error {
	date, _ := b.sessions.cursor(from.ID)
	shifted, err := model.ShiftDate(date, days)
	if err != nil {
		shifted = model.FormatDate(b.now())
	}
	b.sessions.setDate(from.ID, shifted)
	return b.sendDay(ctx, chatID, from)
}

func (b *Bot) handleFilter(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}
	categories := b.categorySvc.List(st)

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		_, active := b.sessions.cursor(msg.From.ID)
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Какую категорию показать?", filterKeyboard(categories, active))
	}
	if strings.EqualFold(arg, service.FilterAll) || strings.EqualFold(arg, "все") {
		b.sessions.setFilter(msg.From.ID, service.FilterAll)
		return b.sendDay(ctx, msg.Chat.ID, msg.From)
	}
	category, ok := resolveCategory(categories, arg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Такой категории нет. Список — в /categories.")
	}
	b.sessions.setFilter(msg.From.ID, category.ID)
	return b.sendDay(ctx, msg.Chat.ID, msg.From)
}

// sendDay renders the browsed day of from with navigation buttons.
func (b *Bot) sendDay(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	st, err := b.workspace(ctx, from)
	if err != nil {
		return err
	}
	date, filter := b.sessions.cursor(from.ID)

	view, err := b.taskSvc.Day(st, date, filter)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось открыть день: %s", escape(err.Error())))
	}
	text := b.reminderSvc.DaySummary(view, b.categorySvc.List(st), b.now())

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = dayKeyboard(view)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) startTaskConversation(ctx context.Context, msg *tgbotapi.Message, editingID string) error {
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}
	b.sessions.clearDialogs(msg.From.ID)

	state := &conversationState{stage: stageTitle, editingID: editingID}
	prompt := "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?"
	markup := interface{}(cancelKeyboard())

	if editingID != "" {
		task, err := b.taskSvc.Get(st, editingID)
		if err != nil {
			return b.replyError(msg.Chat.ID, err)
		}
		state.input = service.InputFromTask(task)
		prompt = fmt.Sprintf("✏️ Меняем «%s».\n<b>Шаг 1:</b> новое название (или «Пропустить»).", escape(normalizeTitle(task.Title)))
		markup = skipKeyboard()
	} else {
		state.input.Date, _ = b.sessions.cursor(msg.From.ID)
	}

	log.Printf("[info] start task conversation user=%d editing=%q", msg.From.ID, editingID)
	b.sessions.setConversation(msg.From.ID, state)
	return b.sendWithReplyMarkup(msg.Chat.ID, prompt, markup)
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(msg.Text)
	editing := state.editingID != ""
	keep := editing && isSkipInput(text)

	switch state.stage {
	case stageTitle:
		if !keep {
			if text == "" {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
			}
			state.input.Title = text
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID,
			fmt.Sprintf("📆 Дата в формате <code>2025-11-30</code> («Пропустить» — %s).", state.input.Date), skipKeyboard())
	case stageDate:
		if !isSkipInput(text) {
			if !model.IsDate(text) {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code>.", skipKeyboard())
			}
			state.input.Date = text
		}
		state.stage = stageTime
		markup := interface{}(cancelKeyboard())
		if editing {
			markup = skipKeyboard()
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Время в формате <code>09:30</code>.", markup)
	case stageTime:
		if !keep {
			if !model.IsClock(text) {
				return b.sendText(msg.Chat.ID, "Время нужно указать как <code>ЧЧ:ММ</code>, например <code>09:30</code>.")
			}
			state.input.Time = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию.", categoryKeyboard(b.categorySvc.List(st), editing))
	case stageCategory:
		if !keep {
			category, ok := resolveCategory(b.categorySvc.List(st), text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Такой категории нет, выбери из списка.", categoryKeyboard(b.categorySvc.List(st), editing))
			}
			state.input.Category = category.ID
		}
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "📝 Добавь описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageReminder
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔔 За сколько минут напомнить? «Нет» — без напоминания.", reminderKeyboard())
	case stageReminder:
		switch {
		case isNoInput(text):
			state.input.Notification = false
			state.input.NotificationTime = 0
		case keep:
		default:
			lead, ok := parseReminderLead(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Нужно число минут от 1 до 1440 или «Нет».", reminderKeyboard())
			}
			state.input.Notification = true
			state.input.NotificationTime = lead
		}
		b.sessions.setConversation(msg.From.ID, nil)
		return b.saveTask(ctx, msg.Chat.ID, msg.From, state.input, service.SaveOptions{EditingID: state.editingID})
	default:
		b.sessions.setConversation(msg.From.ID, nil)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

// saveTask stores input and, on a time conflict, asks whether to save anyway.
func (b *Bot) saveTask(ctx context.Context, chatID int64, from *tgbotapi.User, input service.TaskInput, opts service.SaveOptions) error {
	st, err := b.workspace(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.Save(ctx, st, input, opts)
	if conflict, ok := service.ConflictOf(err); ok {
		b.sessions.setConfirmation(from.ID, &confirmationRequest{
			action:    actionSaveAnyway,
			editingID: opts.EditingID,
			input:     input,
		})
		text := fmt.Sprintf("⚠️ На %s %s уже есть задача «%s». Сохранить всё равно?",
			conflict.Date, conflict.Time, escape(normalizeTitle(conflict.Title)))
		return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(btnSaveAnyway))
	}
	if err != nil {
		return b.replyError(chatID, err)
	}

	verb := "сохранена"
	if opts.EditingID != "" {
		verb = "обновлена"
	}
	info := fmt.Sprintf("✅ Задача «%s» %s: %s %s\n<code>%s</code>", escape(normalizeTitle(task.Title)), verb, task.Date, task.Time, task.ID)
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	b.sessions.setDate(from.ID, task.Date)
	return b.sendDay(ctx, chatID, from)
}

func (b *Bot) handleEdit(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /edit &lt;id&gt;")
	}
	return b.startTaskConversation(ctx, msg, id)
}

func (b *Bot) handleMove(ctx context.Context, msg *tgbotapi.Message) error {
	browsed, _ := b.sessions.cursor(msg.From.ID)
	id, date, clock, err := parseMoveArgs(msg.CommandArguments(), browsed)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /move &lt;id&gt; [ГГГГ-ММ-ДД] ЧЧ:ММ")
	}
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.Move(ctx, st, id, date, clock)
	if conflict, ok := service.ConflictOf(err); ok {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("⛔ Время занято задачей «%s». Задача не перенесена.", escape(normalizeTitle(conflict.Title))))
	}
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("➡️ Задача «%s» перенесена на %s %s.", escape(normalizeTitle(task.Title)), task.Date, task.Time)); err != nil {
		return err
	}
	b.sessions.setDate(msg.From.ID, task.Date)
	return b.sendDay(ctx, msg.Chat.ID, msg.From)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /done &lt;id&gt;")
	}
	return b.toggleTask(ctx, msg.Chat.ID, msg.From, id)
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	st, err := b.workspace(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.ToggleCompletion(ctx, st, id)
	if err != nil {
		return b.replyError(chatID, err)
	}
	info := fmt.Sprintf("↩️ Задача «%s» снова в работе.", escape(normalizeTitle(task.Title)))
	if task.Completed {
		info = fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(task.Title)))
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, from)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete &lt;id&gt;")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, id)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	st, err := b.workspace(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.Get(st, id)
	if err != nil {
		return b.replyError(chatID, err)
	}

	b.sessions.setConfirmation(from.ID, &confirmationRequest{action: actionDelete, taskID: task.ID})
	text := fmt.Sprintf("Удалить задачу «%s» (%s %s)?", escape(normalizeTitle(task.Title)), task.Date, task.Time)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(btnConfirm))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.sessions.setConfirmation(msg.From.ID, nil)
		if req.action == actionSaveAnyway {
			return b.saveTask(ctx, msg.Chat.ID, msg.From, req.input, service.SaveOptions{
				EditingID:     req.editingID,
				AllowConflict: true,
			})
		}
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.sessions.setConfirmation(msg.From.ID, nil)
		return b.sendText(msg.Chat.ID, "Хорошо, ничего не меняю.")
	default:
		prompt, label := "Подтверди или отмени удаление задачи.", btnConfirm
		if req.action == actionSaveAnyway {
			prompt, label = "Сохранить задачу несмотря на совпадение времени?", btnSaveAnyway
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard(label))
	}
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	st, err := b.workspace(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.Get(st, id)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.taskSvc.Delete(ctx, st, id); err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.sendText(chatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, from)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range b.categorySvc.List(st) {
		builder.WriteString("• " + categoryLabel(cat) + "\n")
	}
	builder.WriteString("\nНовая категория: /newcategory &lt;название&gt; [#цвет]")
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleNewCategory(ctx context.Context, msg *tgbotapi.Message) error {
	name, color := parseCategoryArgs(msg.CommandArguments())
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}
	created, err := b.categorySvc.Create(ctx, st, name, color)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, "✅ Категория добавлена: "+categoryLabel(created))
}

func (b *Bot) handleICS(ctx context.Context, msg *tgbotapi.Message) error {
	st, err := b.workspace(ctx, msg.From)
	if err != nil {
		return err
	}
	date, filter := b.sessions.cursor(msg.From.ID)
	body, err := export.DayCalendar(st.Tasks(), st.Categories(), date, filter, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: export.FileName(date), Bytes: []byte(body)})
	doc.Caption = "📅 " + b.reminderSvc.DayTitle(date, b.now())
	_, err = b.api.Send(doc)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleTask(ctx, chatID, cb.From, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbDayPrefix):
		switch strings.TrimPrefix(data, cbDayPrefix) {
		case dayPrev:
			return b.shiftDay(ctx, chatID, cb.From, -1)
		case dayNext:
			return b.shiftDay(ctx, chatID, cb.From, 1)
		default:
			b.sessions.setDate(cb.From.ID, model.FormatDate(b.now()))
			return b.sendDay(ctx, chatID, cb.From)
		}
	case strings.HasPrefix(data, cbFilterPrefix):
		b.sessions.setFilter(cb.From.ID, strings.TrimPrefix(data, cbFilterPrefix))
		return b.sendDay(ctx, chatID, cb.From)
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startTaskConversation(ctx, msg, "")
	case strings.ToLower(menuLabelToday):
		b.sessions.clearDialogs(msg.From.ID)
		b.sessions.setDate(msg.From.ID, model.FormatDate(b.now()))
		return true, b.sendDay(ctx, msg.Chat.ID, msg.From)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// workspace opens the caller's planner. The user row is written the first
// time a chat is seen; /start refreshes it.
func (b *Bot) workspace(ctx context.Context, from *tgbotapi.User) (*store.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.sessions.markSeen(from.ID) {
		b.recordUser(ctx, from)
	}
	return b.registry.Open(ctx, store.UserNamespace(from.ID)), nil
}

func (b *Bot) recordUser(ctx context.Context, from *tgbotapi.User) {
	if b.userRepo == nil {
		return
	}
	_, err := b.userRepo.Upsert(ctx, model.User{
		TelegramID: from.ID,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
		Username:   from.UserName,
	})
	if err != nil {
		log.Printf("[warn] record user %d: %v", from.ID, err)
	}
}

// replyError explains a failed operation to the user.
func (b *Bot) replyError(chatID int64, err error) error {
	return b.sendText(chatID, userMessage(err))
}

func userMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Задача не найдена или уже удалена."
	case errors.Is(err, service.ErrDuplicateCategory):
		return "Категория с таким названием уже есть."
	case errors.Is(err, service.ErrInvalidTimeFormat):
		return "Время нужно указать как <code>ЧЧ:ММ</code>, например <code>09:30</code>."
	case errors.As(err, &verr):
		return fmt.Sprintf("Проверь поле %s: %s.", escape(verr.Field), escape(verr.Message))
	default:
		log.Printf("[warn] operation failed: %v", err)
		return fmt.Sprintf("Ошибка: %s", escape(err.Error()))
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}
