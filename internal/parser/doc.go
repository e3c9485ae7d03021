// Package parser реализует фронтенд языка FLOW:
// лексер, рекурсивный спуск и построение AST.
//
// Документ FLOW состоит из заголовка с именем, необязательного блока
// INPUTS и упорядоченного списка шагов STEP, завершаемых END FLOW:
//
//	FLOW "Orders Report"
//
//	INPUTS
//	  file orders_csv
//	  text note optional
//	END INPUTS
//
//	STEP load =
//	  LOAD CSV FROM orders_csv
//
//	STEP paid =
//	  FILTER load WHERE status == "paid"
//
//	END FLOW
//
// Разбор чистый и детерминированный: одинаковый исходник всегда даёт
// одинаковый результат, никакого I/O.
package parser
