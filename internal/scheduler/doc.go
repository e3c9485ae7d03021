// Package scheduler создаёт запуски flow по расписаниям.
//
// Каждый Tick планировщик сначала заполняет next_due_at у включённых
// расписаний, где оно ещё не вычислено, затем обрабатывает расписания
// с истекшим сроком: создаёт асинхронный run и публикует run.pending.
// Повторная обработка одного срабатывания исключена ключом
// идемпотентности "{schedule_id}_{срок в RFC3339}".
//
// Расписание задаётся либо cron-выражением (пять полей, с учётом
// timezone), либо фиксированным интервалом в секундах; cron имеет
// приоритет.
//
//	sched := scheduler.New(scheduler.Config{
//	    ScheduleRepo: scheduleRepo,
//	    RunRepo:      runRepo,
//	    FlowRepo:     flowRepo,
//	    Publisher:    publisher, // может быть nil, тогда runs подберёт polling воркера
//	    Logger:       logger,
//	})
//	if err := sched.Tick(ctx); err != nil { ... }
//
// Пакет не занимается выбором лидера: Tick должен вызывать только
// один экземпляр, что обеспечивается в main через pg_try_advisory_lock.
package scheduler
