// Package collab — реализации коллабораторов интерпретатора FLOW.
//
// Ядро (internal/engine) вызывает внешние операции через внедряемые
// функции и само никакого I/O не делает. Этот пакет даёт продовые
// реализации поверх HTTP: внешний исполнитель (APX), сборщик пакетов
// (VPKG) и сервис развёртывания, плюс наблюдатель текстовых выходов
// на структурном логе.
//
// Адреса сервисов берутся из переменных окружения APX_URL, VPKG_URL
// и DEPLOY_URL.
package collab
