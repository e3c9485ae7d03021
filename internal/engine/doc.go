// Package engine выполняет граф плана FLOW против материализованных
// входов.
//
// Выполнение однопоточное, до завершения: шаги идут в топологическом
// порядке плана, шаг не начинается, пока все его зависимости не
// материализованы в контексте запуска. Побочные эффекты (вызов
// внешнего исполнителя, сборка пакета, развёртывание сервиса,
// наблюдатель текста) передаются снаружи как Collaborators: ядро
// остаётся чистой функцией от (план, входы, коллабораторы).
//
// Любая ошибка оператора или коллаборатора фатальна для запуска:
// частичные выходы не возвращаются никогда.
package engine
