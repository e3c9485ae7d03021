// Package vvm — минимальная регистровая байткод-машина.
//
// Машина независима от языка FLOW и используется платформой как
// детерминированный низкоуровневый примитив выполнения. Программа —
// плоский список инструкций с необязательными метками; регистры —
// одно плоское пространство имён, слоты создаются лениво при первой
// записи со значением ноль.
//
// Все метки переходов разрешаются одним статическим проходом при
// загрузке: неразрешённая метка — фатальная ошибка загрузки и никогда
// не обнаруживается посреди выполнения. Выполнение однопоточное, без
// приостановок; одинаковая программа всегда даёт одинаковое конечное
// состояние регистров.
package vvm
