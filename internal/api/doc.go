// Package api — HTTP API сервиса: разбор и планирование FLOW-документов,
// запуски (синхронные и через очередь), расписания и исполнение
// VVM-программ.
//
// Все ответы — JSON в конвертах DataResponse/ListResponse/ErrorResponse.
package api
